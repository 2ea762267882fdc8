package grpcapi

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/engine"
	"github.com/xtding233/loto-backend/internal/metrics"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "%d;d", i)
		for k := 0; k < 15; k++ {
			fmt.Fprintf(&b, ";%d", (i+k)%25+1)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "draws.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	s := config.Defaults()
	s.History.Path = path
	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	m := metrics.New()
	e := engine.New(engine.Options{Settings: s, Log: log, Metrics: m})
	require.NoError(t, e.ReloadHistory())

	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(NewService(e, log), m, log)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()
	t.Cleanup(func() {
		srv.Stop()
		_ = lis.Close()
		<-serveErr
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestStats(t *testing.T) {
	c := startServer(t)
	out, err := c.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 25.0, out.GetFields()["draws"].GetNumberValue())
	assert.NotNil(t, out.GetFields()["sums"].GetStructValue())
}

func TestGenerate(t *testing.T) {
	c := startServer(t)
	out, err := c.Generate(context.Background(), mustStruct(t, map[string]any{
		"count": 2, "size": 15, "seed": 11,
	}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.GetFields()["requested"].GetNumberValue())
	games := out.GetFields()["games"].GetListValue().GetValues()
	require.NotEmpty(t, games)
	nums := games[0].GetStructValue().GetFields()["numbers"].GetListValue().GetValues()
	assert.Len(t, nums, 15)
}

func TestGenerateInvalid(t *testing.T) {
	c := startServer(t)
	_, err := c.Generate(context.Background(), mustStruct(t, map[string]any{"size": 3}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Generate(context.Background(), mustStruct(t, map[string]any{"size": "big"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSample(t *testing.T) {
	c := startServer(t)
	out, err := c.Sample(context.Background(), mustStruct(t, map[string]any{
		"budget": 100, "top": 2, "tier": 12, "seed": 5,
	}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.GetFields()["sampled"].GetNumberValue())
}

func TestEvaluate(t *testing.T) {
	c := startServer(t)
	game := []any{}
	for n := 1; n <= 15; n++ {
		game = append(game, n)
	}
	out, err := c.Evaluate(context.Background(), mustStruct(t, map[string]any{"games": []any{game}}))
	require.NoError(t, err)
	recs := out.GetFields()["records"].GetListValue().GetValues()
	require.Len(t, recs, 1)

	_, err = c.Evaluate(context.Background(), mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGenerateHugeCount(t *testing.T) {
	c := startServer(t)
	_, err := c.Generate(context.Background(), mustStruct(t, map[string]any{"count": 2147483648}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSuggest(t *testing.T) {
	c := startServer(t)
	out, err := c.Suggest(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["numbers"].GetListValue().GetValues(), 15)
	assert.Len(t, out.GetFields()["origins"].GetStructValue().GetFields(), 15)

	_, err = c.Suggest(context.Background(), mustStruct(t, map[string]any{"size": 30}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGenerateBatch(t *testing.T) {
	c := startServer(t)
	out, err := c.GenerateBatch(context.Background(), mustStruct(t, map[string]any{
		"quantities": map[string]any{"15": 1, "16": 2},
		"seed":       8,
	}))
	require.NoError(t, err)
	games := out.GetFields()["games"].GetListValue().GetValues()
	require.Len(t, games, 3)
	first := games[0].GetStructValue().GetFields()
	assert.Equal(t, 15.0, first["size"].GetNumberValue())
	assert.NotNil(t, first["record"].GetStructValue())
	assert.Equal(t, 2.0, out.GetFields()["requested"].GetStructValue().GetFields()["16"].GetNumberValue())

	_, err = c.GenerateBatch(context.Background(), mustStruct(t, map[string]any{
		"quantities": map[string]any{"15": 1000},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
