// Package messaging renders notification templates and delivers them by SMS
// and email, logging every attempt against the order it concerns.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/pkg/db"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/messaging/sendgrid"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

// Order lifecycle triggers templates can bind to.
const (
	TriggerOrderCreated   = "order_created"
	TriggerOrderConfirmed = "order_confirmed"
	TriggerOrderShipped   = "order_shipped"
	TriggerOrderDelivered = "order_delivered"
	TriggerOrderCancelled = "order_cancelled"
	TriggerFulfillmentErr = "fulfillment_failed"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type EmailSender interface {
	Send(ctx context.Context, email sendgrid.Email) (string, error)
}

// TemplateInput creates a template when ID is nil and replaces it otherwise.
type TemplateInput struct {
	ID           *uuid.UUID
	Name         string
	Channel      enums.NotificationChannel
	TriggerEvent string
	Subject      *string
	Body         string
	IsActive     *bool
}

// TemplateSend selects a template by id or, failing that, by name.
type TemplateSend struct {
	TemplateID   *uuid.UUID
	TemplateName string
	OrderID      *uuid.UUID
	Recipient    string
	Variables    map[string]any
}

type CustomSend struct {
	OrderID   *uuid.UUID
	Channel   enums.CommunicationChannel
	Recipient string
	Subject   string
	Body      string
}

// SendResult reports one delivery attempt. A provider failure is a result,
// not an error.
type SendResult struct {
	Channel   enums.CommunicationChannel `json:"channel"`
	Success   bool                       `json:"success"`
	LogID     uuid.UUID                  `json:"log_id"`
	MessageID string                     `json:"message_id,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

type Service interface {
	ListTemplates(ctx context.Context, filter TemplateFilter) ([]models.NotificationTemplate, error)
	UpsertTemplate(ctx context.Context, input TemplateInput) (*models.NotificationTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	SendFromTemplate(ctx context.Context, input TemplateSend) ([]SendResult, error)
	SendCustom(ctx context.Context, input CustomSend) (SendResult, error)
	NotifyOrderEvent(ctx context.Context, trigger string, order *models.Order, extra map[string]any) ([]SendResult, error)
	AddInternalNote(ctx context.Context, orderID uuid.UUID, note string) (*models.CommunicationLog, error)
	OrderCommunications(ctx context.Context, orderID uuid.UUID) ([]models.CommunicationLog, error)
}

type ServiceParams struct {
	Repo      Repository
	Orders    orders.Repository
	SMS       SMSSender
	Email     EmailSender
	StoreName string
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo   Repository
	orders orders.Repository
	sms    SMSSender
	email  EmailSender
	store  string
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the messaging service. SMS and Email may be nil; sends on
// an unconfigured channel are logged as failed.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("messaging repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if strings.TrimSpace(params.StoreName) == "" {
		params.StoreName = "Store"
	}
	return &service{
		repo:   params.Repo,
		orders: params.Orders,
		sms:    params.SMS,
		email:  params.Email,
		store:  params.StoreName,
		logg:   params.Logger,
		now:    params.Now,
	}, nil
}

func (s *service) ListTemplates(ctx context.Context, filter TemplateFilter) ([]models.NotificationTemplate, error) {
	rows, err := s.repo.ListTemplates(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list templates")
	}
	if rows == nil {
		rows = []models.NotificationTemplate{}
	}
	return rows, nil
}

func (s *service) UpsertTemplate(ctx context.Context, input TemplateInput) (*models.NotificationTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "channel must be sms, email or both")
	}
	trigger := strings.TrimSpace(input.TriggerEvent)
	if trigger == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trigger_event is required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}

	tpl := &models.NotificationTemplate{IsActive: true}
	if input.ID != nil {
		existing, err := s.repo.FindTemplate(ctx, *input.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load template")
		}
		tpl = existing
	}
	tpl.Name = name
	tpl.Channel = input.Channel
	tpl.TriggerEvent = trigger
	tpl.Subject = input.Subject
	tpl.Body = input.Body
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}

	if err := s.repo.SaveTemplate(ctx, tpl); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a template with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save template")
	}
	return tpl, nil
}

func (s *service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.DeleteTemplate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete template")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
	}
	return nil
}

func (s *service) SendFromTemplate(ctx context.Context, input TemplateSend) ([]SendResult, error) {
	tpl, err := s.resolveTemplate(ctx, input)
	if err != nil {
		return nil, err
	}
	var order *models.Order
	if input.OrderID != nil {
		if order, err = s.loadOrder(ctx, *input.OrderID); err != nil {
			return nil, err
		}
	}
	vars := orderVariables(order, s.store)
	for k, v := range input.Variables {
		vars[k] = v
	}
	return s.deliver(ctx, tpl, order, input.Recipient, vars)
}

func (s *service) SendCustom(ctx context.Context, input CustomSend) (SendResult, error) {
	if input.Channel != enums.CommunicationChannelSMS && input.Channel != enums.CommunicationChannelEmail {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "channel must be sms or email")
	}
	if strings.TrimSpace(input.Body) == "" {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}
	var order *models.Order
	if input.OrderID != nil {
		var err error
		if order, err = s.loadOrder(ctx, *input.OrderID); err != nil {
			return SendResult{}, err
		}
	}
	recipient := strings.TrimSpace(input.Recipient)
	if recipient == "" {
		recipient = recipientFor(order, input.Channel)
	}
	if recipient == "" {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("customer %s is not available", input.Channel))
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = "A message from " + s.store
	}
	return s.send(ctx, input.Channel, order, nil, recipient, subject, input.Body), nil
}

// NotifyOrderEvent sends every active template bound to trigger. No
// templates means nothing to send.
func (s *service) NotifyOrderEvent(ctx context.Context, trigger string, order *models.Order, extra map[string]any) ([]SendResult, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	active := true
	templates, err := s.repo.ListTemplates(ctx, TemplateFilter{TriggerEvent: trigger, Active: &active})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load templates")
	}
	ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{"trigger": trigger})
	if len(templates) == 0 {
		s.logg.Debug(ctx, "no active template for trigger")
		return nil, nil
	}
	vars := orderVariables(order, s.store)
	for k, v := range extra {
		vars[k] = v
	}
	var results []SendResult
	for i := range templates {
		sent, err := s.deliver(ctx, &templates[i], order, "", vars)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "template", templates[i].Name), "order notification skipped: "+err.Error())
			continue
		}
		results = append(results, sent...)
	}
	return results, nil
}

func (s *service) AddInternalNote(ctx context.Context, orderID uuid.UUID, note string) (*models.CommunicationLog, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note is required")
	}
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	entry := &models.CommunicationLog{
		OrderID:   &orderID,
		Channel:   enums.CommunicationChannelInternal,
		Status:    enums.CommunicationStatusDelivered,
		Recipient: "internal",
		Content:   note,
		SentAt:    &now,
	}
	if err := s.repo.CreateLog(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save note")
	}
	return entry, nil
}

func (s *service) OrderCommunications(ctx context.Context, orderID uuid.UUID) ([]models.CommunicationLog, error) {
	rows, err := s.repo.ListLogsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list communications")
	}
	if rows == nil {
		rows = []models.CommunicationLog{}
	}
	return rows, nil
}

func (s *service) resolveTemplate(ctx context.Context, input TemplateSend) (*models.NotificationTemplate, error) {
	var (
		tpl *models.NotificationTemplate
		err error
	)
	switch {
	case input.TemplateID != nil:
		tpl, err = s.repo.FindTemplate(ctx, *input.TemplateID)
	case strings.TrimSpace(input.TemplateName) != "":
		tpl, err = s.repo.FindTemplateByName(ctx, strings.TrimSpace(input.TemplateName))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template_id or template_name is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load template")
	}
	if !tpl.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "template is inactive")
	}
	return tpl, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// deliver renders tpl and sends it on each channel the template covers.
func (s *service) deliver(ctx context.Context, tpl *models.NotificationTemplate, order *models.Order, recipient string, vars map[string]any) ([]SendResult, error) {
	body := Render(tpl.Body, vars)
	subject := "A message from " + s.store
	if tpl.Subject != nil && strings.TrimSpace(*tpl.Subject) != "" {
		subject = Render(*tpl.Subject, vars)
	}

	var channels []enums.CommunicationChannel
	switch tpl.Channel {
	case enums.NotificationChannelSMS:
		channels = []enums.CommunicationChannel{enums.CommunicationChannelSMS}
	case enums.NotificationChannelEmail:
		channels = []enums.CommunicationChannel{enums.CommunicationChannelEmail}
	default:
		channels = []enums.CommunicationChannel{enums.CommunicationChannelSMS, enums.CommunicationChannelEmail}
	}

	results := make([]SendResult, 0, len(channels))
	for _, channel := range channels {
		to := explicitRecipient(recipient, channel, len(channels) > 1)
		if to == "" {
			to = recipientFor(order, channel)
		}
		if to == "" {
			if len(channels) == 1 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("customer %s is not available", channel))
			}
			continue
		}
		results = append(results, s.send(ctx, channel, order, &tpl.ID, to, subject, body))
	}
	return results, nil
}

// send writes a queued log entry, calls the provider and records the outcome.
func (s *service) send(ctx context.Context, channel enums.CommunicationChannel, order *models.Order, templateID *uuid.UUID, to, subject, body string) SendResult {
	entry := &models.CommunicationLog{
		TemplateID: templateID,
		Channel:    channel,
		Status:     enums.CommunicationStatusQueued,
		Recipient:  to,
		Content:    body,
	}
	if order != nil {
		entry.OrderID = &order.ID
		entry.CustomerID = order.CustomerID
	}
	if channel == enums.CommunicationChannelEmail {
		entry.Subject = &subject
	}
	result := SendResult{Channel: channel}
	if err := s.repo.CreateLog(ctx, entry); err != nil {
		s.logg.Error(ctx, "communication log insert failed", err)
		result.Error = "could not record message"
		return result
	}
	result.LogID = entry.ID

	messageID, err := s.dispatch(ctx, channel, to, subject, body)
	updates := map[string]any{}
	if err != nil {
		result.Error = vendors.Message(err)
		updates["status"] = enums.CommunicationStatusFailed
		updates["error_message"] = result.Error
		s.logg.Error(s.logg.WithField(ctx, "channel", string(channel)), "message delivery failed", err)
	} else {
		now := s.now().UTC()
		result.Success, result.MessageID = true, messageID
		updates["status"] = enums.CommunicationStatusSent
		updates["provider_message_id"] = messageID
		updates["sent_at"] = now
	}
	if err := s.repo.UpdateLog(ctx, entry.ID, updates); err != nil {
		s.logg.Error(ctx, "communication log update failed", err)
	}
	return result
}

func (s *service) dispatch(ctx context.Context, channel enums.CommunicationChannel, to, subject, body string) (string, error) {
	switch channel {
	case enums.CommunicationChannelSMS:
		if s.sms == nil {
			return "", errors.New("SMS provider is not configured")
		}
		return s.sms.SendSMS(ctx, to, body)
	case enums.CommunicationChannelEmail:
		if s.email == nil {
			return "", errors.New("email provider is not configured")
		}
		return s.email.Send(ctx, sendgrid.Email{
			To:      to,
			Subject: subject,
			Text:    body,
			HTML:    emailHTML(s.store, body, s.now()),
		})
	default:
		return "", fmt.Errorf("channel %s cannot be delivered", channel)
	}
}

// explicitRecipient applies an override recipient. When a template covers
// both channels the override only applies to the channel it looks like.
func explicitRecipient(recipient string, channel enums.CommunicationChannel, multi bool) string {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || !multi {
		return recipient
	}
	if strings.Contains(recipient, "@") == (channel == enums.CommunicationChannelEmail) {
		return recipient
	}
	return ""
}

func recipientFor(order *models.Order, channel enums.CommunicationChannel) string {
	if order == nil {
		return ""
	}
	switch channel {
	case enums.CommunicationChannelSMS:
		if order.CustomerPhone != nil && strings.TrimSpace(*order.CustomerPhone) != "" {
			return strings.TrimSpace(*order.CustomerPhone)
		}
		return strings.TrimSpace(order.ShippingAddress.Phone)
	case enums.CommunicationChannelEmail:
		return strings.TrimSpace(order.CustomerEmail)
	}
	return ""
}

func orderVariables(order *models.Order, store string) map[string]any {
	vars := map[string]any{"store_name": store}
	if order == nil {
		return vars
	}
	vars["order_number"] = order.OrderNumber
	vars["customer_name"] = order.CustomerName
	vars["total"] = order.Total.StringFixed(2)
	vars["status"] = string(order.Status)
	if order.TrackingNumber != nil {
		vars["tracking_number"] = *order.TrackingNumber
	}
	if order.TrackingURL != nil {
		vars["tracking_url"] = *order.TrackingURL
	}
	if order.Carrier != nil {
		vars["carrier"] = *order.Carrier
	}
	return vars
}
