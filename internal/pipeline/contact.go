package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/findymail"
)

// ContactPhase looks up a work email for each valid result. Every input comes
// back, with Email set when the provider found one; a result left without an
// email is audited once with the reason.
func ContactPhase(ctx context.Context, results []model.ValidationResult, client findymail.Client, runner fanout.Runner, env Env) []model.ValidationResult {
	log := zap.L().With(zap.String("stage", string(ledger.StageContact)))
	log.Info("pipeline: contact discovery starting", zap.Int("results", len(results)))
	start := time.Now()

	out := fanout.Collect(fanout.Stream(ctx, runner, results,
		func(ctx context.Context, r model.ValidationResult) (model.ValidationResult, error) {
			env.Ledger.Add(ledger.StageContact, ledger.Requests, 1)
			contact, err := client.FindByName(ctx, r.FullName(), r.Domain)
			if err != nil {
				return r, err
			}
			if contact.Email == "" {
				env.note(ctx, ledger.StageContact, r.Query, "validated but no contact found")
				return r, nil
			}
			env.Ledger.Add(ledger.StageContact, ledger.Credits, 1)
			env.Ledger.Add(ledger.StageContact, ledger.Emails, 1)
			r.Email = contact.Email
			return r, nil
		},
		func(r model.ValidationResult, err error) model.ValidationResult {
			env.note(ctx, ledger.StageContact, r.Query, contactFailureReason(err))
			return r
		},
	))

	elapsed := time.Since(start)
	env.observe(ledger.StageContact, elapsed)
	emails := 0
	for _, r := range out {
		if r.Email != "" {
			emails++
		}
	}
	log.Info("pipeline: contact discovery complete",
		zap.Int("emails", emails),
		zap.Duration("elapsed", elapsed),
	)
	return out
}

func contactFailureReason(err error) string {
	var apiErr *findymail.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("contact request failed with status %d", apiErr.StatusCode)
	}
	var decodeErr *findymail.DecodeError
	if errors.As(err, &decodeErr) {
		return "contact response malformed: " + decodeErr.Err.Error()
	}
	return "contact transport error: " + err.Error()
}
