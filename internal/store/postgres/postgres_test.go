package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workshop/internal/store/storetest"
)

func TestBackendIntegration(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := New(context.Background(), Options{DatabaseURL: dbURL, ConnectTimeout: 10 * time.Second, RunMigrations: true}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	storetest.Run(t, s)
}
