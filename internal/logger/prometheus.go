package logger

import (
	"context"
	"log/slog"

	"jobgenie/internal/metrics"
)

const componentKey = "component"

// metricsHandler counts records at error level per component.
type metricsHandler struct {
	slog.Handler
	component string
}

func (h *metricsHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		component := h.component
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == componentKey {
				component = a.Value.String()
				return false
			}
			return true
		})
		metrics.ErrorsCounter.WithLabelValues(component).Inc()
	}
	return h.Handler.Handle(ctx, r)
}

func (h *metricsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	for _, a := range attrs {
		if a.Key == componentKey {
			component = a.Value.String()
		}
	}
	return &metricsHandler{Handler: h.Handler.WithAttrs(attrs), component: component}
}

func (h *metricsHandler) WithGroup(name string) slog.Handler {
	return &metricsHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}
