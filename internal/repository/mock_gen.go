// internal/repository/mock_gen.go
package repository

//go:generate mockgen -source=./repository.go -destination=../mocks/mock_transaction.go -package=mocks Transaction
//go:generate mockgen -source=./profile.go -destination=../mocks/mock_profile_repository.go -package=mocks ProfileRepositoryIface
//go:generate mockgen -source=./organization.go -destination=../mocks/mock_organization_repository.go -package=mocks OrganizationRepositoryIface
//go:generate mockgen -source=./invite.go -destination=../mocks/mock_invite_repository.go -package=mocks InviteRepositoryIface
