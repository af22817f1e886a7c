package email

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSender appends every outgoing message to a local file. Used as an
// audit trail alongside the real sender.
type FileSender struct {
	filePath string
}

// NewFileSender creates a FileSender, ensuring the log directory exists.
func NewFileSender(filePath string) (Sender, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("email log file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for email log file %q: %w", filePath, err)
	}
	return &FileSender{filePath: filePath}, nil
}

// Send appends the raw message to the log file.
func (s *FileSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	file, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open email log file: %w", err)
	}
	defer file.Close()

	entry := fmt.Sprintf("--- Email Logged at %s (To: %v, Subject: %s) ---\n%s--- End Logged Email ---\n\n",
		time.Now().Format(time.RFC3339Nano), to, subject, rawMessage)
	if _, err := file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write email to log file: %w", err)
	}
	log.Printf("Email to %v (Subject: %s) logged to %s", to, subject, s.filePath)
	return nil
}
