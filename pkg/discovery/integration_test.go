package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/maktabati/pkg/config"
)

func TestServiceDiscovery_RegisterDiscoverDeregister(t *testing.T) {
	endpoints := os.Getenv("TEST_ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("TEST_ETCD_ENDPOINTS not set, skipping integration test")
	}
	cfg := &config.EtcdConfig{
		Endpoints:   strings.Split(endpoints, ","),
		DialTimeout: 5 * time.Second,
		Prefix:      fmt.Sprintf("/maktabati-test-%d/", time.Now().UnixNano()),
		LeaseTTL:    10,
	}
	sd, err := NewServiceDiscovery(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer sd.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inst := &ServiceInstance{Name: "storefront", Host: "10.0.0.7", Port: 8080, GRPCPort: 9090}
	require.NoError(t, sd.Register(ctx, inst))

	found, err := sd.Discover(ctx, "storefront")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inst, found[0])

	require.NoError(t, sd.Deregister(ctx, inst))
	found, err = sd.Discover(ctx, "storefront")
	require.NoError(t, err)
	assert.Empty(t, found)
}
