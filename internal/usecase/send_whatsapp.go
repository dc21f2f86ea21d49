package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/integration/twilio"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/metrics"
)

// sideEffectTimeout bounds the journal write and the alert email of one
// dispatch.
const sideEffectTimeout = 30 * time.Second

type SendWhatsAppUseCase struct {
	Sender   MessageSender
	Recorder DispatchRecorder // optional
	Notifier FailureNotifier  // optional
	Template Template
	Logger   *zap.Logger

	wg sync.WaitGroup
}

func NewSendWhatsAppUseCase(
	sender MessageSender,
	recorder DispatchRecorder,
	notifier FailureNotifier,
	tmpl Template,
	logger *zap.Logger,
) *SendWhatsAppUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendWhatsAppUseCase{
		Sender:   sender,
		Recorder: recorder,
		Notifier: notifier,
		Template: tmpl,
		Logger:   logger,
	}
}

// Execute sends the template once. Recording and alerting run in the
// background after the outcome is known and never change it.
func (uc *SendWhatsAppUseCase) Execute(ctx context.Context) (*SendWhatsAppOutput, error) {
	d := entity.NewDispatch(uc.Template.To, uc.Template.From, uc.Template.ContentSID, uc.Template.Variables)
	log := uc.Logger.With(zap.String("dispatch_id", d.ID))

	log.Debug("sending whatsapp template", zap.String("to", d.To), zap.String("content_sid", d.ContentSID))

	out, err := uc.Sender.SendTemplate(twilio.SendTemplateInput{
		To:         d.To,
		From:       d.From,
		ContentSID: d.ContentSID,
		Variables:  d.ContentVariables,
	})
	if err != nil {
		dispatchErr := newDispatchError(err)
		d.MarkFailed(dispatchErr.Code, dispatchErr.Message)

		metrics.RecordDispatch(d.Status)
		metrics.RecordIntegrationError("twilio")

		uc.afterDispatch(ctx, log, d)
		return nil, dispatchErr
	}

	d.MarkSent(out.MessageSID, out.Status)
	metrics.RecordDispatch(d.Status)
	uc.afterDispatch(ctx, log, d)

	return &SendWhatsAppOutput{
		DispatchID: d.ID,
		MessageSID: d.MessageSID,
		Status:     d.ProviderStatus,
	}, nil
}

// Wait blocks until background recording and alerting have finished.
func (uc *SendWhatsAppUseCase) Wait() {
	uc.wg.Wait()
}

// afterDispatch detaches from the request: a client hanging up must not
// cancel the journal write.
func (uc *SendWhatsAppUseCase) afterDispatch(ctx context.Context, log *zap.Logger, d *entity.Dispatch) {
	if uc.Recorder == nil && (uc.Notifier == nil || d.Status != entity.DispatchStatusFailed) {
		return
	}

	bg := context.WithoutCancel(ctx)
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()

		ctx, cancel := context.WithTimeout(bg, sideEffectTimeout)
		defer cancel()

		uc.record(ctx, log, d)
		if d.Status == entity.DispatchStatusFailed {
			uc.alert(log, d)
		}
	}()
}

func (uc *SendWhatsAppUseCase) record(ctx context.Context, log *zap.Logger, d *entity.Dispatch) {
	if uc.Recorder == nil {
		return
	}
	if err := uc.Recorder.Record(ctx, d); err != nil {
		log.Warn("⚠️ failed to record dispatch", zap.Error(err))
		metrics.RecordIntegrationError("journal")
	}
}

func (uc *SendWhatsAppUseCase) alert(log *zap.Logger, d *entity.Dispatch) {
	if uc.Notifier == nil {
		return
	}
	if err := uc.Notifier.SendFailureAlert(d); err != nil {
		log.Warn("⚠️ failed to send failure alert", zap.Error(err))
		metrics.RecordIntegrationError("mail")
	}
}
