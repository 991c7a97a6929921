package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOTPService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("code is numeric with configured length", func(t *testing.T) {
		h := newHarness(t)
		for _, length := range []int{4, 6, 9} {
			h.otp.Config.Length = length
			code, err := h.otp.GenerateAndStore(ctx, "user-1")
			require.NoError(t, err)
			require.Regexp(t, regexp.MustCompile(`^[0-9]+$`), code)
			require.Len(t, code, length)
		}
	})

	t.Run("rejects out of range length", func(t *testing.T) {
		h := newHarness(t)
		h.otp.Config.Length = 3
		_, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.Error(t, err)

		h.otp.Config.Length = 10
		_, err = h.otp.GenerateAndStore(ctx, "user-1")
		require.Error(t, err)
	})

	t.Run("only the hash is cached under the prefixed key", func(t *testing.T) {
		h := newHarness(t)
		code, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		stored, err := h.redis.Get("otp:email-verification:user-1")
		require.NoError(t, err)
		require.NotEqual(t, code, stored)
		require.Equal(t, 10*time.Minute, h.redis.TTL("otp:email-verification:user-1"))
	})

	t.Run("validation does not consume the code", func(t *testing.T) {
		h := newHarness(t)
		code, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		for range 2 {
			ok, err := h.otp.IsValid(ctx, "user-1", code)
			require.NoError(t, err)
			require.True(t, ok)
		}

		ok, err := h.otp.IsValid(ctx, "user-2", code)
		require.NoError(t, err)
		require.False(t, ok, "codes are bound to their user")

		ok, err = h.otp.IsValid(ctx, "user-1", "not-a-code")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("new code replaces the pending one", func(t *testing.T) {
		h := newHarness(t)
		first, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)
		second, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		ok, err := h.otp.IsValid(ctx, "user-1", second)
		require.NoError(t, err)
		require.True(t, ok)

		if first != second {
			ok, err = h.otp.IsValid(ctx, "user-1", first)
			require.NoError(t, err)
			require.False(t, ok)
		}
	})

	t.Run("expired code is invalid", func(t *testing.T) {
		h := newHarness(t)
		code, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		h.redis.FastForward(10*time.Minute + time.Second)

		ok, err := h.otp.IsValid(ctx, "user-1", code)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		h := newHarness(t)
		code, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		require.NoError(t, h.otp.Delete(ctx, "user-1"))
		require.NoError(t, h.otp.Delete(ctx, "user-1"))

		ok, err := h.otp.IsValid(ctx, "user-1", code)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("argon2 verifier round trip", func(t *testing.T) {
		h := newHarness(t)
		h.otp.Credentials = nil

		code, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.NoError(t, err)

		ok, err := h.otp.IsValid(ctx, "user-1", code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("cache failure surfaces", func(t *testing.T) {
		h := newHarness(t)
		h.redis.Close()

		_, err := h.otp.GenerateAndStore(ctx, "user-1")
		require.Error(t, err)
		_, err = h.otp.IsValid(ctx, "user-1", "123456")
		require.Error(t, err)
	})
}

func TestOTPConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, OTPConfig{}.withDefaults().Validate())
	require.Error(t, OTPConfig{TTL: -time.Second, Length: 6}.Validate())
	require.Error(t, OTPConfig{TTL: time.Minute, Length: 12}.Validate())
}

func TestArgon2Verifier(t *testing.T) {
	t.Parallel()

	v := Argon2Verifier{}
	hash, err := v.Hash("s3cret-pass")
	require.NoError(t, err)
	require.True(t, v.Matches("s3cret-pass", hash))
	require.False(t, v.Matches("wrong", hash))
	require.False(t, v.Matches("s3cret-pass", "not-a-hash"))
}
