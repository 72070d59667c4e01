package email

import "sync"

// Recorder is a Sender that keeps everything it was asked to send. Used by
// tests and local development when no Sendgrid key is configured.
type Recorder struct {
	mu       sync.Mutex
	Sent     []EmailData
	Contacts []Contact
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendEmail(data EmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, data)
	return nil
}

func (r *Recorder) SyncContact(contact Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Contacts = append(r.Contacts, contact)
	return nil
}
