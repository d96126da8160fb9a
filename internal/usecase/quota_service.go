package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riskibarqy/pitchwatch/internal/docstore"
	"github.com/riskibarqy/pitchwatch/internal/domain/quota"
)

const quotaDateLayout = "2006-01-02"

// Credential is one provider API key plus its rotation position.
type Credential struct {
	Index int
	Key   string
}

// QuotaService owns the daily call budget. Usage counters live in the
// document store so every replica sees the same numbers; the increment
// itself is atomic at the store level. Counters are keyed per UTC day
// and an exhausted credential stays exhausted until the day rolls over.
type QuotaService struct {
	store       docstore.Store
	keys        []string
	perKeyLimit int
	logger      *slog.Logger
	clock       func() time.Time
}

func NewQuotaService(store docstore.Store, keys []string, perKeyLimit int, logger *slog.Logger) *QuotaService {
	if logger == nil {
		logger = slog.Default()
	}
	if perKeyLimit <= 0 {
		perKeyLimit = 100
	}
	return &QuotaService{
		store:       store,
		keys:        append([]string(nil), keys...),
		perKeyLimit: perKeyLimit,
		logger:      logger,
		clock:       time.Now,
	}
}

func (s *QuotaService) today() string {
	return s.clock().UTC().Format(quotaDateLayout)
}

// RecordCall charges one unit against the credential at keyIndex and
// returns the post-increment usage for today.
func (s *QuotaService) RecordCall(ctx context.Context, keyIndex int) (int, error) {
	if keyIndex < 0 || keyIndex >= len(s.keys) {
		return 0, fmt.Errorf("%w: key index %d out of range", ErrInvalidInput, keyIndex)
	}

	date := s.today()
	seed := quota.Counter{Date: date, KeyIndex: keyIndex, Used: 1, Limit: s.perKeyLimit}
	used, err := s.store.IncrementCounter(ctx, docstore.KindQuotaCounter, quota.CounterKey(date, keyIndex), seed)
	if err != nil {
		return 0, fmt.Errorf("record call key=%d date=%s: %w", keyIndex, date, err)
	}
	return used, nil
}

// QuotaFor reads today's budget view for one credential. A missing
// counter document means the credential is unused.
func (s *QuotaService) QuotaFor(ctx context.Context, keyIndex int) (quota.KeyQuota, error) {
	if keyIndex < 0 || keyIndex >= len(s.keys) {
		return quota.KeyQuota{}, fmt.Errorf("%w: key index %d out of range", ErrInvalidInput, keyIndex)
	}

	date := s.today()
	var counter quota.Counter
	found, err := s.store.Get(ctx, docstore.KindQuotaCounter, quota.CounterKey(date, keyIndex), &counter)
	if err != nil {
		return quota.KeyQuota{}, fmt.Errorf("load quota counter key=%d date=%s: %w", keyIndex, date, err)
	}

	used := 0
	if found {
		used = quota.Clamp(counter.Used, s.perKeyLimit)
	}
	return quota.KeyQuota{
		Index:     keyIndex,
		Used:      used,
		Limit:     s.perKeyLimit,
		Remaining: s.perKeyLimit - used,
		Exhausted: used >= s.perKeyLimit,
	}, nil
}

// Aggregate sums today's budget over every configured credential.
func (s *QuotaService) Aggregate(ctx context.Context) (quota.Quota, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QuotaService.Aggregate")
	defer span.End()

	out := quota.Quota{
		Date: s.today(),
		Keys: make([]quota.KeyQuota, 0, len(s.keys)),
	}
	for idx := range s.keys {
		kq, err := s.QuotaFor(ctx, idx)
		if err != nil {
			return quota.Quota{}, err
		}
		out.Keys = append(out.Keys, kq)
		out.Used += kq.Used
		out.Limit += kq.Limit
		out.Remaining += kq.Remaining
	}
	return out, nil
}

// AvailableCredential returns the first credential with budget left
// today, in configuration order.
func (s *QuotaService) AvailableCredential(ctx context.Context) (Credential, bool, error) {
	for idx, key := range s.keys {
		kq, err := s.QuotaFor(ctx, idx)
		if err != nil {
			return Credential{}, false, err
		}
		if !kq.Exhausted {
			return Credential{Index: idx, Key: key}, true, nil
		}
	}
	return Credential{}, false, nil
}

// MarkExhausted force-burns the rest of a credential's daily budget.
// Used after a provider rejection so the rotation never retries a key
// the provider has already refused today.
func (s *QuotaService) MarkExhausted(ctx context.Context, keyIndex int) error {
	if keyIndex < 0 || keyIndex >= len(s.keys) {
		return fmt.Errorf("%w: key index %d out of range", ErrInvalidInput, keyIndex)
	}

	date := s.today()
	counter := quota.Counter{Date: date, KeyIndex: keyIndex, Used: s.perKeyLimit, Limit: s.perKeyLimit}
	if err := s.store.Put(ctx, docstore.KindQuotaCounter, quota.CounterKey(date, keyIndex), counter); err != nil {
		return fmt.Errorf("mark key=%d exhausted date=%s: %w", keyIndex, date, err)
	}
	return nil
}

// ResilientCall runs fn with the first credential that has budget left,
// rotating to the next one when fn fails. The call is charged before fn
// runs so a failing call still burns one unit; the failing credential is
// then marked exhausted for the rest of the day. It returns how many
// call units the rotation charged in total. Returns ErrQuotaExceeded
// when every credential started the day exhausted and
// ErrNoProviderAvailable when every attempted credential failed.
func (s *QuotaService) ResilientCall(ctx context.Context, fn func(ctx context.Context, apiKey string) error) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QuotaService.ResilientCall")
	defer span.End()

	var lastErr error
	charged := 0
	for idx, key := range s.keys {
		kq, err := s.QuotaFor(ctx, idx)
		if err != nil {
			return charged, err
		}
		if kq.Exhausted {
			continue
		}

		if _, err := s.RecordCall(ctx, idx); err != nil {
			return charged, err
		}
		charged++
		callErr := fn(ctx, key)
		if callErr == nil {
			return charged, nil
		}
		if ctx.Err() != nil {
			return charged, callErr
		}

		lastErr = callErr
		s.logger.WarnContext(ctx, "provider call failed, rotating credential",
			"key_index", idx,
			"error", callErr,
		)
		if err := s.MarkExhausted(ctx, idx); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark credential exhausted", "key_index", idx, "error", err)
		}
	}

	if charged == 0 {
		return 0, fmt.Errorf("%w: all %d credentials are exhausted for %s", ErrQuotaExceeded, len(s.keys), s.today())
	}
	return charged, fmt.Errorf("%w: %v", ErrNoProviderAvailable, lastErr)
}
