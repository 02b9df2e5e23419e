// Package fanout files an emergency blood request and notifies the people
// who can act on it: the coordinator first, then every available donor in
// the same district with the same blood group.
//
// The coordinator send is part of the request's outcome; a failure there is
// returned to the caller even though the request is already recorded. Donor
// sends are independent of each other and never fail the request. They are
// only tallied and logged.
package fanout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/mailer"
	"github.com/dalemusser/bloodconnect/internal/app/system/metrics"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EmergencyRecorder persists a new request. Implementations assign the id,
// the open status and the creation time.
type EmergencyRecorder interface {
	Create(ctx context.Context, req models.EmergencyRequest) (models.EmergencyRequest, error)
}

// DonorMatcher returns donors whose blood group and district equal the
// arguments exactly. Availability and email are filtered by the engine.
type DonorMatcher interface {
	FindByBloodGroupAndDistrict(ctx context.Context, bloodGroup, district string) ([]models.Donor, error)
}

// Request is the caller's input.
type Request struct {
	BloodGroup   string `validate:"required,bloodgroup" label:"Blood group"`
	District     string `validate:"required,district" label:"District"`
	Urgency      string `validate:"omitempty,urgency" label:"Urgency"`
	Description  string `validate:"max=1000" label:"Description"`
	ContactName  string `validate:"required,max=100" label:"Contact name"`
	ContactPhone string `validate:"required,max=20" label:"Contact phone"`
}

// Tally counts donor notification outcomes.
// Notified + Failed always equals the number of eligible donors.
type Tally struct {
	Notified int `json:"donorsNotified"`
	Failed   int `json:"donorsFailed"`
}

// Outcome is what FileEmergency reports back.
type Outcome struct {
	Request models.EmergencyRequest
	Tally   Tally
}

// Config holds the engine settings.
type Config struct {
	// CoordinatorEmail receives every request. Required.
	CoordinatorEmail string

	// SiteName appears in the email header and footer.
	SiteName string

	// Concurrency bounds parallel donor sends. 1 or less sends one at a time.
	Concurrency int

	// SendTimeout bounds each individual send. Zero uses timeouts.Send().
	SendTimeout time.Duration
}

// Engine files emergencies. Construct with New; safe for concurrent use.
type Engine struct {
	cfg         Config
	emergencies EmergencyRecorder
	donors      DonorMatcher
	sender      mailer.Sender
	metrics     *metrics.Recorder
	log         *zap.Logger
}

// New validates the configuration and wires the collaborators. rec may be
// nil.
func New(cfg Config, emergencies EmergencyRecorder, donors DonorMatcher, sender mailer.Sender, rec *metrics.Recorder, logger *zap.Logger) (*Engine, error) {
	if emergencies == nil || donors == nil || sender == nil {
		return nil, errors.New("fanout: recorder, matcher and sender are required")
	}
	cfg.CoordinatorEmail = normalize.Email(cfg.CoordinatorEmail)
	if !inputval.IsValidEmail(cfg.CoordinatorEmail) {
		return nil, errors.New("fanout: a valid coordinator email is required")
	}
	if cfg.SiteName == "" {
		cfg.SiteName = models.DefaultSiteName
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:         cfg,
		emergencies: emergencies,
		donors:      donors,
		sender:      sender,
		metrics:     rec,
		log:         logger,
	}, nil
}

// FileEmergency validates req, records it, notifies the coordinator and
// then every eligible donor.
//
// Errors:
//   - *apperr.ValidationError: nothing was written or sent.
//   - apperr.ErrPersistence: nothing was sent.
//   - apperr.ErrTransport: the request is recorded (Outcome.Request is set)
//     but the coordinator could not be notified and no donor was contacted.
//
// Donor sends run on a context detached from ctx's cancellation, so a
// client disconnect does not cut the fan-out short.
func (e *Engine) FileEmergency(ctx context.Context, req Request) (Outcome, error) {
	req = normalizeRequest(req)
	if res := inputval.Validate(req); res.HasErrors() {
		return Outcome{}, res.Err()
	}
	urgency, _ := models.ParseUrgency(req.Urgency)

	rec, err := e.emergencies.Create(ctx, models.EmergencyRequest{
		BloodGroup:   req.BloodGroup,
		District:     req.District,
		Urgency:      urgency,
		Description:  req.Description,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrPersistence) {
			err = apperr.Persistence("record emergency", err)
		}
		return Outcome{}, err
	}
	e.metrics.Emergency()
	out := Outcome{Request: rec}

	data := mailer.EmergencyEmailData{
		SiteName:     e.cfg.SiteName,
		BloodGroup:   rec.BloodGroup,
		District:     rec.District,
		Urgency:      rec.Urgency,
		Description:  rec.Description,
		ContactName:  rec.ContactName,
		ContactPhone: rec.ContactPhone,
		RequestedAt:  rec.CreatedAt,
	}

	coord := data
	coord.ForCoordinator = true
	msg := mailer.BuildEmergencyEmail(coord)
	msg.To = e.cfg.CoordinatorEmail
	if _, err := e.send(ctx, msg); err != nil {
		e.metrics.Notification(metrics.KindCoordinator, false)
		e.log.Error("coordinator notification failed",
			zap.String("emergency_id", rec.ID.Hex()),
			zap.String("to", e.cfg.CoordinatorEmail),
			zap.Error(err))
		if !errors.Is(err, apperr.ErrTransport) {
			err = apperr.Transport("notify coordinator", err)
		}
		return out, err
	}
	e.metrics.Notification(metrics.KindCoordinator, true)

	out.Tally = e.notifyDonors(context.WithoutCancel(ctx), rec, data)
	return out, nil
}

// notifyDonors sends one email per eligible donor and tallies the results.
// A failed match query is logged and yields an empty tally.
func (e *Engine) notifyDonors(ctx context.Context, rec models.EmergencyRequest, data mailer.EmergencyEmailData) Tally {
	qctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	matches, err := e.donors.FindByBloodGroupAndDistrict(qctx, rec.BloodGroup, rec.District)
	cancel()
	if err != nil {
		e.log.Error("donor match query failed",
			zap.String("emergency_id", rec.ID.Hex()),
			zap.Error(err))
		return Tally{}
	}

	eligible := Eligible(matches, rec.BloodGroup, rec.District)
	base := mailer.BuildEmergencyEmail(data)

	var (
		mu    sync.Mutex
		tally Tally
	)
	notify := func(d models.Donor) {
		msg := base
		msg.To = d.Email
		_, err := e.send(ctx, msg)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			tally.Failed++
			e.metrics.Notification(metrics.KindDonor, false)
			e.log.Warn("donor notification failed",
				zap.String("emergency_id", rec.ID.Hex()),
				zap.String("donor_id", d.ID.Hex()),
				zap.String("email", d.Email),
				zap.Error(err))
			return
		}
		tally.Notified++
		e.metrics.Notification(metrics.KindDonor, true)
	}

	if e.cfg.Concurrency <= 1 {
		for _, d := range eligible {
			notify(d)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.cfg.Concurrency)
		for _, d := range eligible {
			g.Go(func() error {
				notify(d)
				return nil
			})
		}
		_ = g.Wait()
	}

	e.log.Info("emergency fan-out complete",
		zap.String("emergency_id", rec.ID.Hex()),
		zap.String("blood_group", rec.BloodGroup),
		zap.String("district", rec.District),
		zap.Int("eligible", len(eligible)),
		zap.Int("notified", tally.Notified),
		zap.Int("failed", tally.Failed))
	return tally
}

func (e *Engine) send(ctx context.Context, msg mailer.Email) (mailer.Result, error) {
	d := e.cfg.SendTimeout
	if d <= 0 {
		d = timeouts.Send()
	}
	sctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return e.sender.Send(sctx, msg)
}

// Eligible keeps donors that match bloodGroup and district exactly, are
// available and have an email. Order is preserved and duplicates sharing an
// email are kept.
func Eligible(donors []models.Donor, bloodGroup, district string) []models.Donor {
	out := make([]models.Donor, 0, len(donors))
	for _, d := range donors {
		if d.BloodGroup != bloodGroup || d.District != district {
			continue
		}
		if !d.IsAvailable || strings.TrimSpace(d.Email) == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func normalizeRequest(r Request) Request {
	r.BloodGroup = normalize.BloodGroup(r.BloodGroup)
	r.District = strings.TrimSpace(r.District)
	r.Urgency = strings.ToLower(strings.TrimSpace(r.Urgency))
	r.Description = strings.TrimSpace(r.Description)
	r.ContactName = normalize.Name(r.ContactName)
	r.ContactPhone = strings.TrimSpace(r.ContactPhone)
	return r
}
