package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/cache"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	// Keys only change on restart, so verifiers may hold on to them briefly.
	jwksCacheControl = "public, max-age=300"

	readinessTimeout = 2 * time.Second
)

var errNoSigningKey = errors.New("no keys loaded")

// JWKSHandler publishes the public half of the signing key.
//
//	@Summary		JSON Web Key Set
//	@Description	Returns the public keys used to verify access token signatures
//	@Tags			Discovery
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"JWKS"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", jwksCacheControl)
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Reports that the process is serving requests. Dependencies are not checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthReport(startTime, version))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the database and the OTP cache and confirms a signing key is loaded.
//	@Description	Responds 503 while any of them is failing.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	c cache.Cache,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	signer := func(context.Context) error {
		if !keys.IsReady() {
			return errNoSigningKey
		}
		return nil
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := authsdk.HealthChecks{
			Database: probe(ctx, st.Ping),
			Cache:    probe(ctx, c.Ping),
			Signer:   probe(ctx, signer),
		}

		report := healthReport(startTime, version)
		report.Checks = &checks

		code := http.StatusOK
		if checks.Database != statusOK || checks.Cache != statusOK || checks.Signer != statusOK {
			report.Status = statusDegraded
			code = http.StatusServiceUnavailable
			slogx.FromContext(r.Context()).Warn("not ready",
				slog.String("database", checks.Database),
				slog.String("cache", checks.Cache),
				slog.String("signer", checks.Signer),
			)
		}

		httpx.WriteJSON(w, code, report)
	}
}

func healthReport(startTime time.Time, version string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  statusOK,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
	}
}

// probe renders one dependency check as "ok" or "error: <cause>".
func probe(ctx context.Context, ping func(context.Context) error) string {
	if err := ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return statusOK
}
