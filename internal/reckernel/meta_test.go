package reckernel

import (
	"strings"
	"testing"
)

func TestDefaultMetaSerializesExpectedFields(t *testing.T) {
	m := DefaultMeta("FIRE", "PYTHON")
	xmlStr, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	for _, want := range []string{"Image", "FIRE", "PYTHON", "16384", "32768"} {
		if !strings.Contains(xmlStr, want) {
			t.Fatalf("serialized meta %q missing %q", xmlStr, want)
		}
	}
}
