package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, "abc-123", CorrelationIDFromContext(c.UserContext()))
		return c.SendString(GetCorrelationID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Len(t, resp.Header.Get("X-Correlation-ID"), 36)
}

func TestCorrelationIDReplacesUnsafeValues(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := map[string]string{
		"markup":   "abc<script>",
		"too long": strings.Repeat("a", maxCorrelationIDLength+1),
		"spaces":   "two words",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, acceptCorrelationID(value))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, value)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Len(t, resp.Header.Get(HeaderCorrelationID), 36)
		})
	}
}

func TestContextWithCorrelation(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), " req-7 ")
	require.Equal(t, "req-7", CorrelationIDFromContext(ctx))
	require.Equal(t, ctx, ContextWithCorrelation(ctx, "req-7"))
	require.Empty(t, CorrelationIDFromContext(ContextWithCorrelation(context.Background(), "")))
}
