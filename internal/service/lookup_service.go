package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fixlab/repair-service/internal/domain"
	"github.com/fixlab/repair-service/internal/repository"
	"github.com/fixlab/repair-service/internal/tracking"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

// minPhoneDigits is the shortest phone fragment accepted for verification.
const minPhoneDigits = 4

// limiterClient is the subset of redis.Client the rate limiter uses.
type limiterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LookupService answers unauthenticated tracking queries. It is strictly
// read-only and collapses "no such code" and "wrong phone" into one
// NOT_FOUND outcome so callers cannot probe which codes exist.
type LookupService struct {
	tickets     repository.TicketRepository
	redisClient limiterClient
	ratePerMin  int
	logger      *zap.Logger
}

// NewLookupService constructs the gateway. redisClient may be nil, in which
// case rate limiting is disabled.
func NewLookupService(tickets repository.TicketRepository, redisClient limiterClient, ratePerMin int, logger *zap.Logger) *LookupService {
	return &LookupService{
		tickets:     tickets,
		redisClient: redisClient,
		ratePerMin:  ratePerMin,
		logger:      logger,
	}
}

// Lookup finds a ticket by tracking code and verifies the supplied phone
// with a digits-only trailing-subset match. This is a convenience check,
// not authentication.
func (s *LookupService) Lookup(ctx context.Context, clientKey, trackingCode, phone string) (*domain.RepairTicket, error) {
	if err := s.allow(ctx, clientKey); err != nil {
		return nil, err
	}

	code := tracking.Normalize(trackingCode)
	if code == "" {
		return nil, apperrors.NewNotFound("ticket", nil)
	}

	ticket, err := s.tickets.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if !phoneMatches(ticket.CustomerPhone, phone) {
		// Deliberately indistinguishable from an unknown code.
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func (s *LookupService) allow(ctx context.Context, clientKey string) error {
	if s.redisClient == nil || s.ratePerMin <= 0 || clientKey == "" {
		return nil
	}
	key := fmt.Sprintf("lookup:rl:%s", clientKey)
	count, err := s.redisClient.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Warn("lookup rate limiter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := s.redisClient.Expire(ctx, key, time.Minute).Err(); err != nil {
			// Without a TTL the counter never resets and the client would be
			// limited forever; drop the key and fail open instead.
			s.logger.Warn("lookup rate limiter expire failed", zap.Error(err))
			s.redisClient.Del(ctx, key)
		}
	}
	if count > int64(s.ratePerMin) {
		return apperrors.NewRateLimited("too many lookup attempts, slow down")
	}
	return nil
}

// phoneMatches strips both numbers to digits and accepts when the supplied
// fragment is a trailing subset of the stored phone.
func phoneMatches(stored, supplied string) bool {
	storedDigits := digitsOnly(stored)
	suppliedDigits := digitsOnly(supplied)
	if len(suppliedDigits) < minPhoneDigits {
		return false
	}
	if len(suppliedDigits) > len(storedDigits) {
		return strings.HasSuffix(suppliedDigits, storedDigits)
	}
	return strings.HasSuffix(storedDigits, suppliedDigits)
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
