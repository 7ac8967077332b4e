package mongo

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
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	s, err := New(context.Background(), Options{URI: uri, Database: "workshop_test", ConnectTimeout: 10 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	storetest.Run(t, s)
}
