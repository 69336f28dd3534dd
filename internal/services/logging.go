package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

// LogOperation writes one line per public operation. The level follows the error kind:
// validation and conflict failures are expected user errors, missing records are informational.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, userID string, resourceID string, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case apperrors.IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		case apperrors.IsValidation(err):
			level = slog.LevelWarn
			status = "validation_error"
		case apperrors.IsConflict(err):
			level = slog.LevelWarn
			status = "conflict"
		case apperrors.IsAuth(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case apperrors.IsNetwork(err):
			level = slog.LevelWarn
			status = "network_error"
		case apperrors.IsAPI(err):
			status = "api_error"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("resource_id", resourceID),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var fields apperrors.ValidationErrors
		if ok := asValidationErrors(err, &fields); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(fields)))
		}
		var apiErr *apperrors.Error
		if apperrors.IsAPI(err) && asError(err, &apiErr) {
			attrs = append(attrs, slog.Int("api_status", apiErr.Status))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, userID string, validationErrors apperrors.ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.Int("error_count", len(validationErrors)),
	}

	for i, err := range validationErrors {
		if i < 5 {
			attrs = append(attrs, slog.Group(fmt.Sprintf("error_%d", i+1),
				slog.String("field", err.Field),
				slog.String("message", err.Message),
				slog.String("rule", err.Rule),
			))
		}
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

// LogDebug is gated by LogConfig.EnableDebug.
func (l *ServiceLogger) LogDebug(ctx context.Context, msg string, args ...any) {
	if l.config.EnableDebug {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// LogRetry records one failed attempt of a retried step.
func (l *ServiceLogger) LogRetry(ctx context.Context, operation string, attempt, maxAttempts int, err error) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Retrying step",
		slog.String("operation", operation),
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.String("error", err.Error()),
	)
}

// ===== CONTEXTUAL LOGGER =====

// ContextualLogger wraps one operation with automatic timing.
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, userID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID string, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, resourceType, time.Since(cl.startTime), err)

	var fields apperrors.ValidationErrors
	if err != nil && asValidationErrors(err, &fields) {
		cl.logger.LogValidationError(cl.ctx, cl.operation, cl.userID, fields)
	}
}

// ===== ERROR FORMATTING HELPERS =====

// FormatError flattens err into log attributes: message, kind and any API status or field errors.
func FormatError(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	result := map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}

	if kind := apperrors.KindOf(err); kind != "" {
		result["type"] = string(kind)
	}
	if apperrors.IsNotFound(err) {
		result["type"] = "not_found"
	}

	var apiErr *apperrors.Error
	if apperrors.IsAPI(err) && asError(err, &apiErr) {
		result["status"] = apiErr.Status
	}

	var fields apperrors.ValidationErrors
	if asValidationErrors(err, &fields) {
		details := make([]map[string]interface{}, len(fields))
		for i, f := range fields {
			details[i] = map[string]interface{}{
				"field":   f.Field,
				"message": f.Message,
			}
		}
		result["errors"] = details
	}

	return result
}
