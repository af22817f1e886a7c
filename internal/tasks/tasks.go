package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/sinkandika/fyzy-web/internal/config"
	"github.com/sinkandika/fyzy-web/internal/email"
	"github.com/sinkandika/fyzy-web/internal/services"
)

// Task types handled by the background worker.
const (
	TypeEmailDelivery       = "email:deliver"
	TypeInvoiceCheckOverdue = "invoice:check_overdue"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// NewOverdueCheckTask builds the periodic overdue sweep task.
func NewOverdueCheckTask() *asynq.Task {
	return asynq.NewTask(TypeInvoiceCheckOverdue, nil)
}

// EmailTaskPayload is the payload of a TypeEmailDelivery task.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewEmailDeliveryTask builds an email delivery task.
func NewEmailDeliveryTask(payload EmailTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, data), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	invoiceService services.IInvoiceService
	emailSender    email.Sender
	taskClient     *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	invoiceService services.IInvoiceService,
	emailSender email.Sender,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		invoiceService: invoiceService,
		emailSender:    emailSender,
		taskClient:     taskClient,
	}
}

// SetupServer configures an Asynq server and mux with the background task
// handlers. The caller runs the server so shutdown stays in one place.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeInvoiceCheckOverdue, processor.HandleInvoiceCheckOverdueTask)
	log.Println("Registered background task handlers.")

	return srv, mux
}

// --- Task Handlers ---

// HandleEmailDeliveryTask sends one email described by the task payload.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
	}

	raw := email.ComposeMessage(p.cfg.SmtpFromAddress, []string{payload.To}, payload.Subject, payload.Body)
	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, raw); err != nil {
		log.Printf("Email sending failed for %s: %v", payload.To, err)
		return err
	}
	return nil
}

// HandleInvoiceCheckOverdueTask flips past-due invoices to Overdue and
// enqueues one notification email per newly overdue invoice. The
// overdue_notified flag keeps repeats from re-mailing the same invoice.
func (p *TaskProcessor) HandleInvoiceCheckOverdueTask(ctx context.Context, t *asynq.Task) error {
	now := time.Now().UTC()
	toNotify, err := p.invoiceService.SweepOverdue(ctx, now)
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return err
	}
	if len(toNotify) == 0 {
		return nil
	}
	log.Printf("Overdue sweep found %d invoice(s) to notify", len(toNotify))

	for _, inv := range toNotify {
		view, err := p.invoiceService.GetViewData(ctx, inv.ID)
		if err != nil {
			log.Printf("Error loading invoice %s for overdue notification: %v. Skipping.", inv.ID.Hex(), err)
			continue
		}
		if view.Customer.Email == "" {
			// Nothing to mail; mark so the sweep stops picking it up.
			if err := p.invoiceService.MarkOverdueNotified(ctx, inv.ID); err != nil {
				log.Printf("Error marking invoice %s notified: %v", inv.ID.Hex(), err)
			}
			continue
		}

		subject := fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber)
		body := fmt.Sprintf(
			"Hi %s,\r\n\r\nInvoice %s for %.2f is past its due date. The outstanding balance is %.2f.\r\n\r\n%s",
			view.Customer.Name, inv.InvoiceNumber, inv.GrandTotal, inv.BalanceDue, p.cfg.AppName,
		)
		task, err := NewEmailDeliveryTask(EmailTaskPayload{To: view.Customer.Email, Subject: subject, Body: body})
		if err != nil {
			log.Printf("Error building overdue email task for invoice %s: %v", inv.ID.Hex(), err)
			continue
		}
		if _, err := p.taskClient.EnqueueContext(ctx, task); err != nil {
			log.Printf("Error enqueuing overdue email for invoice %s: %v", inv.ID.Hex(), err)
			continue
		}
		if err := p.invoiceService.MarkOverdueNotified(ctx, inv.ID); err != nil {
			log.Printf("Error marking invoice %s notified: %v", inv.ID.Hex(), err)
		}
	}
	return nil
}
