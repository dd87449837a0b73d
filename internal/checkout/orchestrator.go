package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tierpay/api/validators"
	"github.com/angelmondragon/tierpay/internal/catalog"
	"github.com/angelmondragon/tierpay/internal/client"
	"github.com/angelmondragon/tierpay/internal/payments"
	"github.com/angelmondragon/tierpay/internal/sessions"
	"github.com/angelmondragon/tierpay/pkg/enums"
	pkgerrors "github.com/angelmondragon/tierpay/pkg/errors"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

const defaultStageTimeout = 30 * time.Second

// cardElementContainer names the surface the card input mounts into.
const cardElementContainer = "card-element"

// backendAPI is the slice of the HTTP client one purchase attempt needs.
type backendAPI interface {
	GetProduct(ctx context.Context, id string) (*catalog.ProductDTO, error)
	GetConfig(ctx context.Context) (string, error)
	CreatePaymentIntent(ctx context.Context, req client.IntentRequest) (*payments.IntentDTO, error)
	CreateCheckoutSession(ctx context.Context, req client.CheckoutRequest) (*sessions.CheckoutRedirectDTO, error)
}

// Navigation carries the success-view context. The payment id is context for
// display, not proof of payment; the backend's webhook remains the source of
// truth.
type Navigation struct {
	PaymentIntentID string
	ProductName     string
}

// Params carries the dependencies for NewOrchestrator.
type Params struct {
	API          backendAPI
	SDK          PaymentSDK
	Logger       *logger.Logger
	StageTimeout time.Duration
}

// Orchestrator drives one purchase attempt through its lifecycle. It owns the
// mounted card element exclusively and tears it down on exit.
type Orchestrator struct {
	api          backendAPI
	sdk          PaymentSDK
	logg         *logger.Logger
	stageTimeout time.Duration
	attemptID    string

	attemptCtx    context.Context
	cancelAttempt context.CancelFunc

	mu             sync.Mutex
	gen            uint64
	closed         bool
	state          enums.CheckoutState
	reason         enums.FailureReason
	message        string
	fieldErrors    map[string]string
	product        *catalog.ProductDTO
	publishableKey string
	element        CardElement
	nav            *Navigation
}

// NewOrchestrator builds an orchestrator for a single purchase attempt.
func NewOrchestrator(params Params) (*Orchestrator, error) {
	if params.API == nil {
		return nil, errors.New("backend api client required")
	}
	if params.SDK == nil {
		return nil, errors.New("payment sdk required")
	}
	timeout := params.StageTimeout
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		api:           params.API,
		sdk:           params.SDK,
		logg:          params.Logger,
		stageTimeout:  timeout,
		attemptID:     uuid.NewString(),
		attemptCtx:    ctx,
		cancelAttempt: cancel,
		state:         enums.CheckoutStateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() enums.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// FailureReason returns the classification of the last failure.
func (o *Orchestrator) FailureReason() enums.FailureReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// Message returns the last user-visible message.
func (o *Orchestrator) Message() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.message
}

// FieldErrors returns per-field validation messages from the last submit.
func (o *Orchestrator) FieldErrors() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.fieldErrors))
	for k, v := range o.fieldErrors {
		out[k] = v
	}
	return out
}

// Product returns the loaded product, if any.
func (o *Orchestrator) Product() *catalog.ProductDTO {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.product == nil {
		return nil
	}
	p := *o.product
	return &p
}

// Navigation returns the success-view context once the attempt succeeded.
func (o *Orchestrator) Navigation() *Navigation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.nav == nil {
		return nil
	}
	nav := *o.nav
	return &nav
}

// Begin loads the product and SDK configuration concurrently, then mounts the
// card element. On success the attempt is ready to submit.
func (o *Orchestrator) Begin(ctx context.Context, productID string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.New("orchestrator closed")
	}
	if o.state != enums.CheckoutStateIdle {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("cannot begin from state %s", state)
	}
	if productID == "" {
		o.fail(enums.FailureReasonNoProduct, "no product selected")
		o.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeValidation, "no product selected")
	}
	o.state = enums.CheckoutStateLoadingProduct
	gen := o.gen
	o.mu.Unlock()

	o.logTransition(ctx, "checkout.loading_product", productID)

	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	type productResult struct {
		product *catalog.ProductDTO
		err     error
	}
	type configResult struct {
		key string
		err error
	}
	productCh := make(chan productResult, 1)
	configCh := make(chan configResult, 1)

	go func() {
		p, err := o.api.GetProduct(sctx, productID)
		productCh <- productResult{product: p, err: err}
	}()
	go func() {
		key, err := o.api.GetConfig(sctx)
		configCh <- configResult{key: key, err: err}
	}()

	pr := <-productCh
	cr := <-configCh

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stale(gen) {
		return nil
	}

	if pr.err != nil {
		switch pkgerrors.CodeOf(pr.err) {
		case pkgerrors.CodeNotFound:
			o.fail(enums.FailureReasonNoProduct, "product not found")
		case pkgerrors.CodeTimeout:
			o.fail(enums.FailureReasonTimeout, "loading the product timed out")
		default:
			o.fail(enums.FailureReasonCatalogUnavailable, "product catalog is unavailable")
		}
		return pr.err
	}
	if cr.err != nil {
		if pkgerrors.CodeOf(cr.err) == pkgerrors.CodeTimeout {
			o.fail(enums.FailureReasonTimeout, "loading payment configuration timed out")
		} else {
			o.fail(enums.FailureReasonPaymentSystemUnavailable, "payment system is unavailable")
		}
		return cr.err
	}

	o.product = pr.product
	o.publishableKey = cr.key
	o.state = enums.CheckoutStateAwaitingPaymentSetup

	element, err := o.sdk.CreateCardElement(o.publishableKey)
	if err != nil {
		o.fail(enums.FailureReasonPaymentSystemUnavailable, "payment system is unavailable")
		return err
	}
	if err := element.Mount(cardElementContainer); err != nil {
		o.fail(enums.FailureReasonPaymentSystemUnavailable, "payment system is unavailable")
		return err
	}
	o.element = element
	o.state = enums.CheckoutStateReadyToSubmit
	return nil
}

// Submit validates billing details locally, creates the payment intent with
// the catalog's amount and currency, and confirms it through the card element.
func (o *Orchestrator) Submit(ctx context.Context, billing BillingDetails) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.New("orchestrator closed")
	}
	if !o.canSubmit() {
		state := o.state
		o.mu.Unlock()
		return fmt.Errorf("cannot submit from state %s", state)
	}
	if o.element == nil {
		o.mu.Unlock()
		return errors.New("card element not mounted")
	}

	// The validation gate is total: nothing leaves this method on bad input.
	if err := validators.ValidateStruct(&billing); err != nil {
		o.state = enums.CheckoutStateReadyToSubmit
		o.reason = enums.FailureReasonValidationError
		o.message = "please correct the highlighted fields"
		o.fieldErrors = validationDetails(err)
		o.mu.Unlock()
		return err
	}
	o.fieldErrors = nil
	o.state = enums.CheckoutStateSubmitting
	o.reason = enums.FailureReasonNone
	o.message = ""
	product := *o.product
	element := o.element
	gen := o.gen
	o.mu.Unlock()

	o.logTransition(ctx, "checkout.submitting", product.ID)

	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	// Amount and currency always come from the loaded product, never from
	// caller input.
	intent, err := o.api.CreatePaymentIntent(sctx, client.IntentRequest{
		ProductID:     product.ID,
		Amount:        product.Price,
		Currency:      product.Currency,
		CustomerEmail: billing.Email,
		CustomerName:  billing.Name,
	})

	o.mu.Lock()
	if o.stale(gen) {
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeTimeout {
			o.fail(enums.FailureReasonTimeout, "the payment request timed out")
		} else {
			o.fail(enums.FailureReasonBackendRejected, backendMessage(err))
		}
		o.mu.Unlock()
		return err
	}
	o.state = enums.CheckoutStateConfirming
	o.mu.Unlock()

	o.logTransition(ctx, "checkout.confirming", product.ID)

	result, err := element.ConfirmPayment(sctx, intent.ClientSecret, billing)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stale(gen) {
		return nil
	}
	if err != nil {
		reason := enums.FailureReasonProcessorError
		message := "payment confirmation failed"
		var confirmErr *ConfirmError
		if errors.As(err, &confirmErr) {
			if confirmErr.Code == "card_declined" {
				reason = enums.FailureReasonCardDeclined
			}
			if confirmErr.Message != "" {
				message = confirmErr.Message
			}
		} else if pkgerrors.CodeOf(err) == pkgerrors.CodeTimeout || errors.Is(err, context.DeadlineExceeded) {
			reason = enums.FailureReasonTimeout
			message = "payment confirmation timed out"
		}
		// Declines are correctable: stay on the form.
		o.state = enums.CheckoutStateReadyToSubmit
		o.reason = reason
		o.message = message
		return err
	}

	o.state = enums.CheckoutStateSucceeded
	o.reason = enums.FailureReasonNone
	o.message = ""
	o.nav = &Navigation{
		PaymentIntentID: result.PaymentIntentID,
		ProductName:     product.Name,
	}
	return nil
}

// BeginHostedCheckout is the alternative flow: instead of confirming in
// place, it asks the backend for a hosted checkout redirect. The terminal
// outcome is resolved out of band by webhook and later session queries.
func (o *Orchestrator) BeginHostedCheckout(ctx context.Context, billing BillingDetails) (string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", errors.New("orchestrator closed")
	}
	if !o.canSubmit() {
		state := o.state
		o.mu.Unlock()
		return "", fmt.Errorf("cannot start hosted checkout from state %s", state)
	}
	if err := validators.ValidateStruct(&billing); err != nil {
		o.state = enums.CheckoutStateReadyToSubmit
		o.reason = enums.FailureReasonValidationError
		o.message = "please correct the highlighted fields"
		o.fieldErrors = validationDetails(err)
		o.mu.Unlock()
		return "", err
	}
	o.fieldErrors = nil
	o.state = enums.CheckoutStateSubmitting
	product := *o.product
	gen := o.gen
	o.mu.Unlock()

	sctx, cancel := o.stageContext(ctx)
	defer cancel()

	redirect, err := o.api.CreateCheckoutSession(sctx, client.CheckoutRequest{
		PriceID:       product.ID,
		CustomerEmail: billing.Email,
		CustomerName:  billing.Name,
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stale(gen) {
		return "", nil
	}
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeTimeout {
			o.fail(enums.FailureReasonTimeout, "the checkout request timed out")
		} else {
			o.fail(enums.FailureReasonBackendRejected, backendMessage(err))
		}
		return "", err
	}

	o.state = enums.CheckoutStateConfirming
	return redirect.CheckoutURL, nil
}

// Cancel terminates the attempt from any state before success. Late responses
// from in-flight stages are discarded.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if o.state == enums.CheckoutStateSucceeded || o.state == enums.CheckoutStateCancelled {
		o.mu.Unlock()
		return nil
	}
	o.state = enums.CheckoutStateCancelled
	o.gen++
	element := o.element
	o.element = nil
	o.mu.Unlock()

	o.cancelAttempt()
	if element != nil {
		return element.Destroy()
	}
	return nil
}

// Close tears the attempt down. Idempotent; the card element is always
// destroyed so no SDK listener state leaks.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.gen++
	element := o.element
	o.element = nil
	o.mu.Unlock()

	o.cancelAttempt()

	var errs error
	if element != nil {
		errs = multierr.Append(errs, element.Destroy())
	}
	return errs
}

// canSubmit holds the lock.
func (o *Orchestrator) canSubmit() bool {
	if o.state == enums.CheckoutStateReadyToSubmit {
		return true
	}
	return o.state == enums.CheckoutStateFailed && o.reason.Retryable()
}

// fail holds the lock.
func (o *Orchestrator) fail(reason enums.FailureReason, message string) {
	o.state = enums.CheckoutStateFailed
	o.reason = reason
	o.message = message
}

// stale holds the lock and reports whether a stage result must be discarded.
func (o *Orchestrator) stale(gen uint64) bool {
	return o.closed || o.gen != gen || o.state == enums.CheckoutStateCancelled
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	sctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	stop := context.AfterFunc(o.attemptCtx, cancel)
	return sctx, func() {
		stop()
		cancel()
	}
}

func (o *Orchestrator) logTransition(ctx context.Context, msg, productID string) {
	if o.logg == nil {
		return
	}
	lctx := o.logg.WithAttemptID(ctx, o.attemptID)
	lctx = o.logg.WithProductID(lctx, productID)
	o.logg.Info(lctx, msg)
}

func backendMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return "the payment could not be processed"
}

func validationDetails(err error) map[string]string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return nil
	}
	if details, ok := typed.Details().(map[string]string); ok {
		return details
	}
	return nil
}
