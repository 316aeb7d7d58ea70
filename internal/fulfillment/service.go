// Package fulfillment routes paid orders to their suppliers and keeps local
// orders in step with what the suppliers report back.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/internal/messaging"
	"github.com/angelmondragon/dropship-backend/internal/orders"
	"github.com/angelmondragon/dropship-backend/internal/platforms"
	"github.com/angelmondragon/dropship-backend/internal/products"
	"github.com/angelmondragon/dropship-backend/internal/tracking"
	"github.com/angelmondragon/dropship-backend/pkg/db/models"
	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	"github.com/angelmondragon/dropship-backend/pkg/pagination"
	"github.com/angelmondragon/dropship-backend/pkg/telemetry"
	"github.com/angelmondragon/dropship-backend/pkg/types"
	"github.com/angelmondragon/dropship-backend/pkg/vendors"
)

const (
	defaultSyncLimit      = 200
	defaultAutoBatchLimit = 50
)

// Platforms resolves supplier adapters from the stored platform settings.
type Platforms interface {
	Adapter(ctx context.Context, platform enums.Platform) (platforms.Adapter, error)
	Automation(ctx context.Context) (models.AutomationSettings, error)
}

// Tracker records carrier shipments.
type Tracker interface {
	AddTracking(ctx context.Context, input tracking.AddInput) (*models.TrackingRecord, error)
}

// Messenger writes order notes and customer notifications.
type Messenger interface {
	AddInternalNote(ctx context.Context, orderID uuid.UUID, note string) (*models.CommunicationLog, error)
	NotifyOrderEvent(ctx context.Context, trigger string, order *models.Order, extra map[string]any) ([]messaging.SendResult, error)
}

type Service interface {
	FulfillOrder(ctx context.Context, input FulfillInput) (*FulfillResult, error)
	RetryFulfillment(ctx context.Context, orderID uuid.UUID) (*FulfillResult, error)
	CancelFulfillment(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	GetOrderStatus(ctx context.Context, platform enums.Platform, vendorOrderID string) (*platforms.VendorOrderStatus, error)
	CancelOrder(ctx context.Context, platform enums.Platform, vendorOrderID, reason string) error
	SyncAllOrders(ctx context.Context) (*SyncOrdersResult, error)
	UpdateStatusFromPlatform(ctx context.Context, input PlatformUpdate) (*StatusView, error)
	GetFulfillmentStatus(ctx context.Context, orderID uuid.UUID) (*StatusView, error)
	PendingOrders(ctx context.Context, params pagination.Params) (*orders.OrderList, error)
	Stats(ctx context.Context) (*Stats, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentRecord, error)
	ListActiveRecords(ctx context.Context) ([]models.FulfillmentRecord, error)
	AutoFulfillPending(ctx context.Context) (*AutoFulfillResult, error)
}

type ServiceParams struct {
	Repo      Repository
	Orders    orders.Repository
	Products  products.Repository
	Platforms Platforms
	Tracker   Tracker
	Messenger Messenger
	Logger    *logger.Logger
	Now       func() time.Time

	SyncLimit      int
	AutoBatchLimit int
}

type service struct {
	repo      Repository
	orders    orders.Repository
	products  products.Repository
	platforms Platforms
	tracker   Tracker
	messenger Messenger
	logg      *logger.Logger
	now       func() time.Time

	syncLimit int
	autoBatch int
}

// NewService builds the fulfillment service. Tracker and Messenger are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Platforms == nil {
		return nil, fmt.Errorf("platform manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.SyncLimit <= 0 {
		params.SyncLimit = defaultSyncLimit
	}
	if params.AutoBatchLimit <= 0 {
		params.AutoBatchLimit = defaultAutoBatchLimit
	}
	return &service{
		repo:      params.Repo,
		orders:    params.Orders,
		products:  params.Products,
		platforms: params.Platforms,
		tracker:   params.Tracker,
		messenger: params.Messenger,
		logg:      params.Logger,
		now:       params.Now,
		syncLimit: params.SyncLimit,
		autoBatch: params.AutoBatchLimit,
	}, nil
}

// line is one order line resolved to the supplier that ships it.
type line struct {
	platform        enums.Platform
	vendorProductID string
	vendorVariantID string
	item            models.FulfillmentItem
}

// FulfillOrder places one supplier order per source platform. Each group is
// recorded on its own; a failing group does not undo the others.
func (s *service) FulfillOrder(ctx context.Context, input FulfillInput) (result *FulfillResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "fulfillment.fulfill_order", trace.SpanKindInternal,
		attribute.String("order.id", input.OrderID.String()))
	defer func() { telemetry.End(span, err) }()

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if err := checkFulfillable(order, input.Force); err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, order, input.Items)
	if err != nil {
		return nil, err
	}
	address := order.ShippingAddress
	if input.Address != nil {
		address = *input.Address
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		email = order.CustomerEmail
	}
	automation, err := s.platforms.Automation(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load automation settings")
	}

	groups := groupLines(lines)
	platformsInOrder := make([]enums.Platform, 0, len(groups))
	for p := range groups {
		platformsInOrder = append(platformsInOrder, p)
	}
	sort.Slice(platformsInOrder, func(i, j int) bool { return platformsInOrder[i] < platformsInOrder[j] })

	result = &FulfillResult{OrderID: order.ID}
	for _, platform := range platformsInOrder {
		group := s.fulfillGroup(ctx, order, platform, groups[platform], address, email, automation)
		result.Groups = append(result.Groups, group)
	}

	s.finishOrder(ctx, order, result)
	span.SetAttributes(attribute.Bool("fulfillment.success", result.Success))
	return result, nil
}

func checkFulfillable(order *models.Order, force bool) error {
	if order.Status == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment not completed")
	}
	if !force && (order.FulfillmentStatus == enums.FulfillmentStatusShipped || order.FulfillmentStatus == enums.FulfillmentStatusDelivered) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")
	}
	return nil
}

func (s *service) resolveLines(ctx context.Context, order *models.Order, override []FulfillItem) ([]line, error) {
	if len(override) > 0 {
		out := make([]line, 0, len(override))
		for i, in := range override {
			if in.Quantity <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be positive", i))
			}
			product, err := s.products.FindByID(ctx, in.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: product not found", i))
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			out = append(out, productLine(product, in.VariantID, in.Quantity))
		}
		return out, nil
	}

	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items to fulfill")
	}
	out := make([]line, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID != nil {
			product, err := s.products.FindByID(ctx, *item.ProductID)
			switch {
			case err == nil:
				l := productLine(product, item.VariantID, item.Quantity)
				l.item.SKU, l.item.Name = item.SKU, item.Name
				out = append(out, l)
				continue
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
		}
		l := line{
			platform: enums.PlatformLocal,
			item:     models.FulfillmentItem{SKU: item.SKU, Name: item.Name, Quantity: item.Quantity},
		}
		if item.ProductID != nil {
			l.item.ProductID = item.ProductID.String()
		}
		// lines ordered straight from a supplier catalog ship from the order's source
		if item.VendorProductID != nil && order.Source.IsVendor() {
			l.platform = order.Source
			l.vendorProductID = *item.VendorProductID
			l.item.VendorProductID = *item.VendorProductID
		}
		out = append(out, l)
	}
	return out, nil
}

func productLine(product *models.Product, variantID *uuid.UUID, qty int) line {
	l := line{
		platform: enums.PlatformLocal,
		item: models.FulfillmentItem{
			ProductID: product.ID.String(),
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  qty,
		},
	}
	if product.Source.IsVendor() {
		l.platform = product.Source
		if id := product.VendorProductID(); id != nil {
			l.vendorProductID = *id
			l.item.VendorProductID = *id
		}
	}
	if variantID != nil {
		for _, v := range product.Variants {
			if v.ID != *variantID {
				continue
			}
			l.item.VariantID = v.ID.String()
			l.item.SKU = v.SKU
			if v.VendorVariantID != nil {
				l.vendorVariantID = *v.VendorVariantID
			}
		}
	}
	return l
}

func groupLines(lines []line) map[enums.Platform][]line {
	out := make(map[enums.Platform][]line)
	for _, l := range lines {
		out[l.platform] = append(out[l.platform], l)
	}
	return out
}

func (s *service) fulfillGroup(ctx context.Context, order *models.Order, platform enums.Platform, lines []line, address types.ShippingAddress, email string, automation models.AutomationSettings) GroupResult {
	ctx = s.logg.WithPlatform(ctx, string(platform))
	items := make([]models.FulfillmentItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.item)
	}
	record := &models.FulfillmentRecord{
		OrderID:         order.ID,
		Platform:        platform,
		Status:          enums.FulfillmentRecordStatusProcessing,
		Items:           items,
		ShippingAddress: address,
	}
	group := GroupResult{Platform: platform, Items: items}

	var vendorOrderID, raw string
	var err error
	if platform == enums.PlatformLocal {
		vendorOrderID = "LOCAL-" + order.OrderNumber
	} else {
		vendorOrderID, raw, err = s.placeVendorOrder(ctx, order, platform, lines, address, email, automation)
	}

	if err != nil {
		msg := err.Error()
		record.Status = enums.FulfillmentRecordStatusFailed
		record.ErrorLog = &msg
		group.Error = vendors.Message(err)
		s.logg.Error(ctx, "supplier fulfillment failed", err)
	} else {
		record.VendorOrderID = &vendorOrderID
		if raw != "" {
			record.VendorStatusRaw = &raw
		}
		group.Success = true
		group.VendorOrderID = vendorOrderID
	}

	if cerr := s.repo.Create(ctx, record); cerr != nil {
		s.logg.Error(s.logg.WithField(ctx, "vendor_order_id", vendorOrderID), "fulfillment record insert failed", cerr)
		if group.Error == "" {
			group.Error = "could not record fulfillment"
		}
		return group
	}
	group.RecordID = record.ID
	return group
}

// placeVendorOrder checks supplier stock for every line before creating the
// supplier order.
func (s *service) placeVendorOrder(ctx context.Context, order *models.Order, platform enums.Platform, lines []line, address types.ShippingAddress, email string, automation models.AutomationSettings) (string, string, error) {
	adapter, err := s.platforms.Adapter(ctx, platform)
	if err != nil {
		return "", "", err
	}
	req := platforms.VendorOrderRequest{
		Reference:      order.OrderNumber,
		Address:        address,
		Email:          email,
		Warehouse:      automation.Warehouse,
		ShippingMethod: automation.ShippingMethod,
	}
	if order.Notes != nil {
		req.Notes = *order.Notes
	}
	for _, l := range lines {
		if l.vendorProductID == "" {
			return "", "", fmt.Errorf("%s has no %s product id", l.item.SKU, platform)
		}
		available, err := adapter.GetInventory(ctx, l.vendorProductID, l.vendorVariantID)
		if err != nil {
			return "", "", fmt.Errorf("stock check for %s: %w", l.item.SKU, err)
		}
		if available < l.item.Quantity {
			return "", "", fmt.Errorf("insufficient %s stock for %s: %d available, %d requested", platform, l.item.SKU, available, l.item.Quantity)
		}
		req.Items = append(req.Items, platforms.VendorOrderItem{
			ProductID: l.vendorProductID,
			VariantID: l.vendorVariantID,
			Quantity:  l.item.Quantity,
		})
	}
	res, err := adapter.CreateOrder(ctx, req)
	if err != nil {
		return "", "", err
	}
	return res.VendorOrderID, res.RawStatus, nil
}

// finishOrder writes the aggregate outcome onto the order and leaves an
// internal note describing every group.
func (s *service) finishOrder(ctx context.Context, order *models.Order, result *FulfillResult) {
	var succeeded int
	var failures []string
	updates := map[string]any{}
	for _, g := range result.Groups {
		if g.Success {
			succeeded++
			if g.Platform.IsVendor() {
				updates[models.VendorOrderColumn(g.Platform)] = g.VendorOrderID
			}
			continue
		}
		failures = append(failures, fmt.Sprintf("%s: %s", g.Platform, g.Error))
	}

	switch {
	case len(failures) == 0:
		result.Success = true
		result.FulfillmentStatus = enums.FulfillmentStatusProcessing
		updates["sync_error"] = nil
	case succeeded == 0:
		result.FulfillmentStatus = enums.FulfillmentStatusFailed
	default:
		result.FulfillmentStatus = enums.FulfillmentStatusPartial
	}
	if len(failures) > 0 {
		result.Error = strings.Join(failures, "; ")
		updates["sync_error"] = result.Error
	}
	updates["fulfillment_status"] = result.FulfillmentStatus

	if err := s.applyOrderUpdates(ctx, order, succeeded > 0, updates); err != nil {
		s.logg.Error(ctx, "order fulfillment update failed", err)
	}

	if s.messenger != nil {
		if _, err := s.messenger.AddInternalNote(ctx, order.ID, fulfillmentNote(result)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "fulfillment note not recorded")
		}
	}
	if !result.Success {
		s.notify(ctx, messaging.TriggerFulfillmentErr, order.ID, map[string]any{"error": result.Error})
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "groups", len(result.Groups)), "order fulfilled")
}

func (s *service) applyOrderUpdates(ctx context.Context, order *models.Order, advance bool, updates map[string]any) error {
	if advance && order.Status != enums.OrderStatusProcessing && order.Status.CanTransitionTo(enums.OrderStatusProcessing) {
		ok, err := s.orders.TransitionStatus(ctx, order.ID, order.Status, enums.OrderStatusProcessing, updates)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		s.logg.Warn(ctx, "order status changed during fulfillment; keeping current status")
	}
	return s.orders.Update(ctx, order.ID, updates)
}

func fulfillmentNote(result *FulfillResult) string {
	var b strings.Builder
	b.WriteString("Fulfillment ")
	if result.Success {
		b.WriteString("submitted")
	} else {
		b.WriteString(string(result.FulfillmentStatus))
	}
	for _, g := range result.Groups {
		b.WriteString("\n")
		b.WriteString(string(g.Platform))
		if g.Success {
			b.WriteString(": ok, supplier order ")
			b.WriteString(g.VendorOrderID)
		} else {
			b.WriteString(": failed, ")
			b.WriteString(g.Error)
		}
	}
	return b.String()
}

// RetryFulfillment clears the last error and fulfills again, shipped or not.
func (s *service) RetryFulfillment(ctx context.Context, orderID uuid.UUID) (*FulfillResult, error) {
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, orderID, map[string]any{"sync_error": nil}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear sync error")
	}
	return s.FulfillOrder(ctx, FulfillInput{OrderID: orderID, Force: true})
}

// CancelFulfillment cancels open supplier orders and then the order itself.
// Supplier refusals are flagged for reconciliation; the local cancel proceeds.
func (s *service) CancelFulfillment(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if order.Status == enums.OrderStatusCancelled {
		return order, nil
	}
	if order.Status == enums.OrderStatusShipped || order.Status == enums.OrderStatusDelivered ||
		order.FulfillmentStatus == enums.FulfillmentStatusShipped || order.FulfillmentStatus == enums.FulfillmentStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot cancel a shipped order")
	}
	reason = strings.TrimSpace(reason)

	records, err := s.repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load fulfillment records")
	}
	for _, rec := range records {
		if !isOpen(rec) {
			continue
		}
		updates := map[string]any{"status": enums.FulfillmentRecordStatusCancelled}
		if rec.Platform.IsVendor() && rec.VendorOrderID != nil {
			if err := s.cancelWithVendor(ctx, rec.Platform, *rec.VendorOrderID, reason); err != nil {
				msg := "supplier cancel failed: " + err.Error()
				updates = map[string]any{"needs_reconciliation": true, "error_log": msg}
				s.logg.Error(s.logg.WithPlatform(ctx, string(rec.Platform)), "supplier order cancel failed", err)
			}
		}
		if err := s.repo.Update(ctx, rec.ID, updates); err != nil {
			s.logg.Error(ctx, "fulfillment record update failed", err)
		}
	}

	note := "Fulfillment cancelled"
	if reason != "" {
		note += ": " + reason
	}
	ok, err := s.orders.TransitionStatus(ctx, order.ID, order.Status, enums.OrderStatusCancelled, map[string]any{
		"fulfillment_status": enums.FulfillmentStatusCancelled,
		"internal_notes":     appendNote(order.InternalNotes, note),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	s.logg.Info(ctx, "fulfillment cancelled")
	s.notify(ctx, messaging.TriggerOrderCancelled, order.ID, map[string]any{"reason": reason})
	return s.loadOrder(ctx, order.ID)
}

func isOpen(rec models.FulfillmentRecord) bool {
	switch rec.Status {
	case enums.FulfillmentRecordStatusPending, enums.FulfillmentRecordStatusProcessing, enums.FulfillmentRecordStatusUnknown:
		return true
	}
	return false
}

func (s *service) cancelWithVendor(ctx context.Context, platform enums.Platform, vendorOrderID, reason string) error {
	adapter, err := s.platforms.Adapter(ctx, platform)
	if err != nil {
		return err
	}
	return adapter.CancelOrder(ctx, vendorOrderID, reason)
}

func (s *service) GetOrderStatus(ctx context.Context, platform enums.Platform, vendorOrderID string) (*platforms.VendorOrderStatus, error) {
	if !platform.IsVendor() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q is not a supplier platform", platform))
	}
	vendorOrderID = strings.TrimSpace(vendorOrderID)
	if vendorOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_order_id is required")
	}
	adapter, err := s.platforms.Adapter(ctx, platform)
	if err != nil {
		return nil, err
	}
	return adapter.GetOrderStatus(ctx, vendorOrderID)
}

// CancelOrder cancels a supplier order and marks its record cancelled.
func (s *service) CancelOrder(ctx context.Context, platform enums.Platform, vendorOrderID, reason string) error {
	if !platform.IsVendor() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q is not a supplier platform", platform))
	}
	vendorOrderID = strings.TrimSpace(vendorOrderID)
	if vendorOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor_order_id is required")
	}
	if err := s.cancelWithVendor(ctx, platform, vendorOrderID, reason); err != nil {
		return err
	}
	rec, err := s.repo.FindByVendorOrderID(ctx, platform, vendorOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load fulfillment record")
	}
	if err := s.repo.Update(ctx, rec.ID, map[string]any{"status": enums.FulfillmentRecordStatusCancelled}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update fulfillment record")
	}
	return nil
}

// SyncAllOrders polls every open supplier order one after the other.
// Failures are counted per record and the pass always completes.
func (s *service) SyncAllOrders(ctx context.Context) (*SyncOrdersResult, error) {
	records, err := s.repo.ListActive(ctx, s.syncLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active fulfillment records")
	}
	result := &SyncOrdersResult{UpdatedOrders: []uuid.UUID{}}
	adapters := map[enums.Platform]platforms.Adapter{}
	adapterErrs := map[enums.Platform]error{}

	fail := func(rec models.FulfillmentRecord, err error) {
		result.Errors++
		err = fmt.Errorf("%s order %s: %w", rec.Platform, *rec.VendorOrderID, err)
		result.Failures = append(result.Failures, err.Error())
		result.errs = multierr.Append(result.errs, err)
	}

	for i := range records {
		rec := records[i]
		if ctx.Err() != nil {
			result.errs = multierr.Append(result.errs, ctx.Err())
			result.Errors++
			break
		}
		adapter, ok := adapters[rec.Platform]
		if !ok {
			if err, failed := adapterErrs[rec.Platform]; failed {
				fail(rec, err)
				continue
			}
			adapter, err = s.platforms.Adapter(ctx, rec.Platform)
			if err != nil {
				adapterErrs[rec.Platform] = err
				fail(rec, err)
				continue
			}
			adapters[rec.Platform] = adapter
		}
		status, err := adapter.GetOrderStatus(ctx, *rec.VendorOrderID)
		if err != nil {
			fail(rec, err)
			continue
		}
		changed, err := s.applyVendorStatus(ctx, &rec, status)
		if err != nil {
			fail(rec, err)
			continue
		}
		result.Synced++
		if changed {
			result.UpdatedOrders = append(result.UpdatedOrders, rec.OrderID)
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"synced":         result.Synced,
		"errors":         result.Errors,
		"updated_orders": len(result.UpdatedOrders),
	})
	if result.errs != nil {
		s.logg.Error(logCtx, "order sync finished with errors", result.errs)
	} else {
		s.logg.Info(logCtx, "order sync finished")
	}
	return result, nil
}

// applyVendorStatus stores a polled status on the record and carries shipping
// progress over to the order. It reports whether the order changed.
func (s *service) applyVendorStatus(ctx context.Context, rec *models.FulfillmentRecord, st *platforms.VendorOrderStatus) (bool, error) {
	now := s.now().UTC()
	updates := map[string]any{
		"status":               st.Status,
		"vendor_status_raw":    st.RawStatus,
		"needs_reconciliation": st.NeedsReconciliation,
		"last_sync_at":         now,
	}
	if st.TrackingNumber != "" {
		updates["tracking_number"] = st.TrackingNumber
	}
	if st.TrackingURL != "" {
		updates["tracking_url"] = st.TrackingURL
	}
	if st.Carrier != "" {
		updates["carrier"] = st.Carrier
	}
	if err := s.repo.Update(ctx, rec.ID, updates); err != nil {
		return false, fmt.Errorf("update record: %w", err)
	}
	rec.Status = st.Status

	ctx = s.logg.WithOrderID(ctx, rec.OrderID.String())
	if st.NeedsReconciliation {
		s.logg.Warn(s.logg.WithField(ctx, "vendor_status", st.RawStatus), "unmapped supplier status needs reconciliation")
	}

	switch st.Status {
	case enums.FulfillmentRecordStatusShipped:
		return s.markShipped(ctx, rec, st)
	case enums.FulfillmentRecordStatusDelivered:
		shipped, err := s.markShipped(ctx, rec, st)
		if err != nil {
			return shipped, err
		}
		delivered, err := s.markDelivered(ctx, rec.OrderID)
		return shipped || delivered, err
	case enums.FulfillmentRecordStatusCancelled, enums.FulfillmentRecordStatusRefunded:
		msg := fmt.Sprintf("%s reported order %s as %s", rec.Platform, st.VendorOrderID, strings.ToLower(string(st.Status)))
		if err := s.orders.Update(ctx, rec.OrderID, map[string]any{"sync_error": msg}); err != nil {
			return false, fmt.Errorf("flag order: %w", err)
		}
		s.logg.Warn(ctx, msg)
		return true, nil
	}
	return false, nil
}

func (s *service) markShipped(ctx context.Context, rec *models.FulfillmentRecord, st *platforms.VendorOrderStatus) (bool, error) {
	order, err := s.orders.FindByID(ctx, rec.OrderID)
	if err != nil {
		return false, fmt.Errorf("load order: %w", err)
	}
	if order.Status == enums.OrderStatusShipped || order.Status.IsTerminal() {
		return false, nil
	}
	if _, err := orders.ShippingPath(order); err != nil {
		msg := fmt.Sprintf("%s shipped order %s but the order cannot be marked shipped: %s", rec.Platform, st.VendorOrderID, pkgerrors.As(err).Message())
		if err := s.repo.Update(ctx, rec.ID, map[string]any{"needs_reconciliation": true, "error_log": msg}); err != nil {
			return false, fmt.Errorf("flag record: %w", err)
		}
		if err := s.orders.Update(ctx, order.ID, map[string]any{"sync_error": msg}); err != nil {
			return false, fmt.Errorf("flag order: %w", err)
		}
		s.logg.Warn(ctx, msg)
		return false, nil
	}

	if st.TrackingNumber != "" && s.tracker != nil {
		input := tracking.AddInput{
			OrderID:        order.ID,
			Carrier:        CarrierFor(st.Carrier),
			TrackingNumber: st.TrackingNumber,
			TrackingURL:    st.TrackingURL,
			Notes:          fmt.Sprintf("synced from %s order %s", rec.Platform, st.VendorOrderID),
		}
		_, err := s.tracker.AddTracking(ctx, input)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation && input.Carrier != enums.CarrierOther {
			// supplier numbers do not always follow the carrier's public format
			input.Carrier = enums.CarrierOther
			_, err = s.tracker.AddTracking(ctx, input)
		}
		if err != nil {
			return false, fmt.Errorf("add tracking: %w", err)
		}
		return true, nil
	}

	updates := map[string]any{"fulfillment_status": enums.FulfillmentStatusShipped}
	if st.TrackingNumber != "" {
		updates["tracking_number"] = st.TrackingNumber
	}
	if st.TrackingURL != "" {
		updates["tracking_url"] = st.TrackingURL
	}
	if st.Carrier != "" {
		updates["carrier"] = st.Carrier
	}
	ok, err := orders.Ship(ctx, s.orders, order, updates)
	if err != nil {
		return false, fmt.Errorf("mark order shipped: %w", err)
	}
	if ok {
		s.notify(ctx, messaging.TriggerOrderShipped, order.ID, nil)
	}
	return ok, nil
}

func (s *service) markDelivered(ctx context.Context, orderID uuid.UUID) (bool, error) {
	ok, err := s.orders.TransitionStatus(ctx, orderID, enums.OrderStatusShipped, enums.OrderStatusDelivered,
		map[string]any{"fulfillment_status": enums.FulfillmentStatusDelivered})
	if err != nil {
		return false, fmt.Errorf("mark order delivered: %w", err)
	}
	if ok {
		s.notify(ctx, messaging.TriggerOrderDelivered, orderID, nil)
	}
	return ok, nil
}

// CarrierFor maps a supplier carrier name onto a known carrier.
func CarrierFor(name string) enums.Carrier {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, err := enums.ParseCarrier(name); err == nil {
		return c
	}
	for _, c := range enums.Carriers() {
		if c != enums.CarrierOther && strings.Contains(name, string(c)) {
			return c
		}
	}
	return enums.CarrierOther
}

// UpdateStatusFromPlatform applies a status pushed by an admin or a supplier
// callback as if it had been polled.
func (s *service) UpdateStatusFromPlatform(ctx context.Context, input PlatformUpdate) (*StatusView, error) {
	if !input.Platform.IsVendor() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%q is not a supplier platform", input.Platform))
	}
	vendorOrderID := strings.TrimSpace(input.VendorOrderID)
	if vendorOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor_order_id is required")
	}
	if strings.TrimSpace(input.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByVendorOrderID(ctx, input.Platform, vendorOrderID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = &models.FulfillmentRecord{
			OrderID:         order.ID,
			Platform:        input.Platform,
			VendorOrderID:   &vendorOrderID,
			Status:          enums.FulfillmentRecordStatusProcessing,
			ShippingAddress: order.ShippingAddress,
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create fulfillment record")
		}
		if err := s.orders.Update(ctx, order.ID, map[string]any{models.VendorOrderColumn(input.Platform): vendorOrderID}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store vendor order id")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load fulfillment record")
	case rec.OrderID != order.ID:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor order belongs to another order")
	}

	status, ok := platforms.MapVendorStatus(input.Status)
	st := &platforms.VendorOrderStatus{
		VendorOrderID:       vendorOrderID,
		RawStatus:           input.Status,
		Status:              status,
		NeedsReconciliation: !ok,
		TrackingNumber:      strings.TrimSpace(input.TrackingNumber),
		TrackingURL:         strings.TrimSpace(input.TrackingURL),
		Carrier:             strings.TrimSpace(input.Carrier),
	}
	if _, err := s.applyVendorStatus(ctx, rec, st); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply supplier status")
	}
	return s.GetFulfillmentStatus(ctx, order.ID)
}

func (s *service) GetFulfillmentStatus(ctx context.Context, orderID uuid.UUID) (*StatusView, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	records, err := s.History(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := &StatusView{
		OrderID:        order.ID,
		Status:         order.FulfillmentStatus,
		VendorOrderIDs: map[enums.Platform]string{},
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
		Carrier:        order.Carrier,
		LastError:      order.SyncError,
		UpdatedAt:      order.UpdatedAt,
		Records:        records,
	}
	for _, p := range []enums.Platform{enums.PlatformCJ, enums.PlatformZendrop, enums.PlatformAppScenic} {
		if id := order.VendorOrderID(p); id != nil && *id != "" {
			view.VendorOrderIDs[p] = *id
		}
	}
	for _, r := range records {
		if r.NeedsReconciliation {
			view.NeedsReconciling = true
		}
	}
	return view, nil
}

// PendingOrders lists paid orders without any supplier order, oldest first.
func (s *service) PendingOrders(ctx context.Context, params pagination.Params) (*orders.OrderList, error) {
	rows, total, err := s.orders.ListAwaitingFulfillment(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return &orders.OrderList{Orders: rows, Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.OrderStats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fulfillment stats")
	}
	return stats, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.FulfillmentRecord, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list fulfillment records")
	}
	if rows == nil {
		rows = []models.FulfillmentRecord{}
	}
	return rows, nil
}

func (s *service) ListActiveRecords(ctx context.Context) ([]models.FulfillmentRecord, error) {
	rows, err := s.repo.ListActive(ctx, s.syncLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active fulfillment records")
	}
	if rows == nil {
		rows = []models.FulfillmentRecord{}
	}
	return rows, nil
}

// AutoFulfillPending fulfills one batch of paid, unfulfilled orders when
// auto-fulfill is switched on in the platform settings.
func (s *service) AutoFulfillPending(ctx context.Context) (*AutoFulfillResult, error) {
	automation, err := s.platforms.Automation(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load automation settings")
	}
	result := &AutoFulfillResult{Enabled: automation.AutoFulfill}
	if !automation.AutoFulfill {
		s.logg.Debug(ctx, "auto-fulfill disabled")
		return result, nil
	}

	pending, _, err := s.orders.ListAwaitingFulfillment(ctx, pagination.Params{Page: 1, Limit: s.autoBatch})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending orders")
	}
	for _, order := range pending {
		if ctx.Err() != nil {
			result.errs = multierr.Append(result.errs, ctx.Err())
			break
		}
		result.Attempted++
		res, err := s.FulfillOrder(ctx, FulfillInput{OrderID: order.ID})
		switch {
		case err != nil:
			result.Failed++
			result.errs = multierr.Append(result.errs, fmt.Errorf("order %s: %w", order.OrderNumber, err))
		case !res.Success:
			result.Failed++
			result.errs = multierr.Append(result.errs, fmt.Errorf("order %s: %s", order.OrderNumber, res.Error))
		default:
			result.Succeeded++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}), "auto-fulfill pass finished")
	return result, nil
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

func (s *service) notify(ctx context.Context, trigger string, orderID uuid.UUID, extra map[string]any) {
	if s.messenger == nil {
		return
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.logg.Error(ctx, "reload order for notification failed", err)
		return
	}
	if _, err := s.messenger.NotifyOrderEvent(ctx, trigger, order, extra); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "trigger", trigger), "customer notification failed", err)
	}
}

func appendNote(existing *string, note string) string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n" + note
}
