package apiconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	c := Defaults()
	c.Source.RpcUrl = "http://localhost:26657"
	c.Sink.Kind = SinkStdout
	return c
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingRpcUrl(t *testing.T) {
	c := validConfig()
	c.Source.RpcUrl = ""
	require.Error(t, c.Validate())
}

func TestValidate_BadScheme(t *testing.T) {
	c := validConfig()
	c.Source.RpcUrl = "ftp://localhost"
	require.Error(t, c.Validate())
}

func TestValidate_ToLessThanFrom(t *testing.T) {
	c := validConfig()
	from := uint64(200)
	c.Range.From = &from
	c.Range.To = "100"
	require.Error(t, c.Validate())
}

func TestValidate_ToLatestAlwaysOK(t *testing.T) {
	c := validConfig()
	from := uint64(200)
	c.Range.From = &from
	c.Range.To = "latest"
	require.NoError(t, c.Validate())
}

func TestValidate_JitterOutOfRange(t *testing.T) {
	c := validConfig()
	c.Source.BackoffJitter = 1.5
	require.Error(t, c.Validate())
}

func TestValidate_ClickhouseSinkRejected(t *testing.T) {
	c := validConfig()
	c.Sink.Kind = SinkClickhouse
	require.Error(t, c.Validate())
}

func TestValidate_UnknownSinkKind(t *testing.T) {
	c := validConfig()
	c.Sink.Kind = "bogus"
	require.Error(t, c.Validate())
}

func TestValidate_PostgresRequiresHost(t *testing.T) {
	c := validConfig()
	c.Sink.Kind = SinkPostgres
	require.Error(t, c.Validate())
	c.Pg.Host = "localhost"
	require.NoError(t, c.Validate())
}

func TestValidate_BadCaseMode(t *testing.T) {
	c := validConfig()
	c.Concurrency.CaseMode = "pascal"
	require.Error(t, c.Validate())
}
