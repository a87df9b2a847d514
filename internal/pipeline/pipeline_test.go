package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// duplex wires a Connection's inbound and outbound sides to two independent
// buffers, standing in for a single net.Conn in tests.
type duplex struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (d *duplex) Read(p []byte) (int, error)  { return d.in.Read(p) }
func (d *duplex) Write(p []byte) (int, error) { return d.out.Write(p) }

func buildAcquisitionSession(t *testing.T, selector string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := wire.WriteConfigFile(&buf, selector); err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	if err := wire.WriteParameterScript(&buf, "<hdr/>"); err != nil {
		t.Fatalf("WriteParameterScript: %v", err)
	}
	codec := reccodec.Reference{}
	acq := &reccodec.Acquisition{
		Header: reccodec.AcquisitionHeader{NumberOfSamples: 4, ActiveChannels: 1},
		Data:   []complex64{1, 2, 3, 4},
	}
	acq.Header.SetFlag(reccodec.AcqLastInSlice)
	if err := wire.WriteBodyIdentifier(&buf, wire.KindAcquisition); err != nil {
		t.Fatalf("WriteBodyIdentifier: %v", err)
	}
	if err := codec.WriteAcquisition(&buf, acq); err != nil {
		t.Fatalf("WriteAcquisition: %v", err)
	}
	if err := wire.WriteClose(&buf); err != nil {
		t.Fatalf("WriteClose: %v", err)
	}
	return &buf
}

func newSessionConn(t *testing.T, session *bytes.Buffer) (*streamconn.Connection, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	codec := reccodec.Reference{}
	conn := streamconn.New(&duplex{in: session, out: &out}, codec)
	if _, err := conn.Next(); err != nil {
		t.Fatalf("Next (config): %v", err)
	}
	if _, err := conn.Next(); err != nil {
		t.Fatalf("Next (metadata): %v", err)
	}
	return conn, &out
}

func TestRegistryResolvesKnownTokens(t *testing.T) {
	reg := NewRegistry()
	for _, token := range []string{"simplefft", "invertcontrast", "null", "savedataonly"} {
		if reg.Resolve(token) == nil {
			t.Fatalf("Resolve(%q) returned nil", token)
		}
	}
}

func TestRegistryFallsBackToInvertContrastForUnknownToken(t *testing.T) {
	reg := NewRegistry()
	p := reg.Resolve("not-a-real-selector")
	if p == nil {
		t.Fatal("expected a fallback pipeline, got nil")
	}
	if reflect.ValueOf(p).Pointer() != reflect.ValueOf(InvertContrast).Pointer() {
		t.Fatal("expected the fallback pipeline to be InvertContrast")
	}
}

func TestSimpleFFTProducesImageThenClose(t *testing.T) {
	session := buildAcquisitionSession(t, "simplefft")
	conn, out := newSessionConn(t, session)

	if err := SimpleFFT(&Context{Conn: conn, ConfigSelector: "simplefft"}); err != nil {
		t.Fatalf("SimpleFFT: %v", err)
	}

	env, err := wire.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope (image): %v", err)
	}
	if env.Kind != wire.KindImage {
		t.Fatalf("first outbound envelope kind = %v, want Image", env.Kind)
	}
	codec := reccodec.Reference{}
	if _, err := codec.ReadImage(env.Raw); err != nil {
		t.Fatalf("ReadImage: %v", err)
	}

	closeEnv, err := wire.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope (close): %v", err)
	}
	if closeEnv.Kind != wire.KindClose {
		t.Fatalf("second outbound envelope kind = %v, want Close", closeEnv.Kind)
	}
}

func TestNullDrainsAndSendsCloseOnly(t *testing.T) {
	session := buildAcquisitionSession(t, "null")
	conn, out := newSessionConn(t, session)

	if err := Null(&Context{Conn: conn, ConfigSelector: "null"}); err != nil {
		t.Fatalf("Null: %v", err)
	}

	env, err := wire.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Kind != wire.KindClose {
		t.Fatalf("outbound envelope kind = %v, want Close (null emits nothing else)", env.Kind)
	}
}

func TestSaveDataOnlyCreatesSinkAndDrains(t *testing.T) {
	session := buildAcquisitionSession(t, "savedataonly")
	conn, out := newSessionConn(t, session)

	ctx := &Context{
		Conn:           conn,
		ConfigSelector: "savedataonly",
		CaptureDir:     t.TempDir(),
		SessionID:      "test-session",
	}
	if err := SaveDataOnly(ctx); err != nil {
		t.Fatalf("SaveDataOnly: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ctx.CaptureDir, ctx.SessionID)); err != nil {
		t.Fatalf("expected a capture directory for the session: %v", err)
	}

	env, err := wire.ReadEnvelope(out)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Kind != wire.KindClose {
		t.Fatalf("outbound envelope kind = %v, want Close", env.Kind)
	}
}
