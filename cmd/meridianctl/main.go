// cmd/meridianctl/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/config"
	"github.com/meridianhq/meridian/internal/model"
	"github.com/meridianhq/meridian/internal/repository"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetAPIKeyCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "meridianctl",
	Short: "meridianctl is the admin CLI for the Meridian backend",
	Long:  `meridianctl manages database migrations and organization API keys.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Migrate the schema for profiles, organizations, memberships and invitations.`,
	Run: func(cmd *cobra.Command, args []string) {
		db := openDatabase()

		if err := db.AutoMigrate(
			&model.Profile{},
			&model.Organization{},
			&model.Membership{},
			&model.Invite{},
		); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}

		fmt.Println("Schema migrated")
	},
}

var resetAPIKeyCmd = &cobra.Command{
	Use:   "reset-api-key [organization-id]",
	Short: "Mint a fresh API key for an organization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		orgID, err := uuid.Parse(args[0])
		if err != nil {
			log.Fatalf("Invalid organization id: %v", err)
		}

		db := openDatabase()
		repo := repository.NewOrganizationRepository(db)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		org, err := repo.FindByID(ctx, orgID)
		if err != nil {
			log.Fatalf("Failed to find organization: %v", err)
		}

		key := uuid.NewString()
		org.APIKey = &key
		if err := repo.Update(ctx, org); err != nil {
			log.Fatalf("Failed to update organization: %v", err)
		}

		fmt.Printf("New API key for %s: %s\n", org.Name, key)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("meridianctl v0.1.0")
	},
}

func openDatabase() *gorm.DB {
	cfg := config.Load()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)

	gormConfig := &gorm.Config{TranslateError: true}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if verbose {
		fmt.Printf("Connected to %s/%s\n", cfg.Database.Host, cfg.Database.Name)
	}

	return db
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
