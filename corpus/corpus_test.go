package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/tlb-abi/errors"
)

const daolamaXML = `<abi>
  <types>
    vault_info#_ total:Grams = VaultInfo;
  </types>
  <get_method name="get_vault_data"><output fixed_length="true"><int name="x">int32</int></output></get_method>
  <internal name="daolama_vault_supply" fixed_length>
    supply#5c11ada9 query_id:uint64 amount:Grams = InternalMsgBody;
  </internal>
  <internal name="daolama_vault_withdraw" fixed_length="false">
    withdraw#2b3e4a10 query_id:uint64 = InternalMsgBody;
  </internal>
  <jetton_payload name="deposit">
    deposit#00000001 = JettonPayload;
  </jetton_payload>
</abi>`

const dedustYAML = `
types: |
  asset_native$0000 = Asset;
internals:
  - name: dedust_swap
    fixed_length: true
    tlb: |
      swap#ea06185d query_id:uint64 amount:Grams = InternalMsgBody;
jetton_payloads:
  - name: dedust_swap
    tlb: "swap#e3a0d482 limit:Grams = JettonPayload;"
unrelated: 42
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestParseXML(t *testing.T) {
	doc, err := Parse(FormatXML, "daolama", []byte(daolamaXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Group != "daolama" {
		t.Errorf("group = %q", doc.Group)
	}
	if doc.Types != "vault_info#_ total:Grams = VaultInfo;" {
		t.Errorf("types = %q", doc.Types)
	}

	want := []Entry{
		{Name: "daolama_vault_supply", Fragment: "supply#5c11ada9 query_id:uint64 amount:Grams = InternalMsgBody;", FixedLength: true},
		{Name: "daolama_vault_withdraw", Fragment: "withdraw#2b3e4a10 query_id:uint64 = InternalMsgBody;"},
	}
	if len(doc.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(doc.Messages), len(want))
	}
	for i, w := range want {
		if doc.Messages[i] != w {
			t.Errorf("message %d = %+v, want %+v", i, doc.Messages[i], w)
		}
	}
	if len(doc.Payloads) != 1 || doc.Payloads[0].Name != "deposit" || doc.Payloads[0].FixedLength {
		t.Errorf("payloads = %+v", doc.Payloads)
	}
}

func TestParseYAML(t *testing.T) {
	doc, err := Parse(FormatYAML, "dedust", []byte(dedustYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Types != "asset_native$0000 = Asset;" {
		t.Errorf("types = %q", doc.Types)
	}
	if len(doc.Messages) != 1 || !doc.Messages[0].FixedLength ||
		doc.Messages[0].Fragment != "swap#ea06185d query_id:uint64 amount:Grams = InternalMsgBody;" {
		t.Errorf("messages = %+v", doc.Messages)
	}
	if len(doc.Payloads) != 1 || doc.Payloads[0].Fragment != "swap#e3a0d482 limit:Grams = JettonPayload;" {
		t.Errorf("payloads = %+v", doc.Payloads)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"xml wrong root", FormatXML, `<schema></schema>`},
		{"xml empty", FormatXML, ``},
		{"yaml bad shape", FormatYAML, "internals: 12\n"},
		{"unknown format", FormatUnknown, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.format, "g", []byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"stonfi-v2.xml": daolamaXML,
		"dedust.yaml":   dedustYAML,
		"daolama.xml":   daolamaXML,
		"README.md":     "ignored",
	})
	if err := os.Mkdir(filepath.Join(dir, "nested.xml"), 0o755); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	var groups []string
	for _, d := range docs {
		groups = append(groups, d.Group)
	}
	want := []string{"daolama", "dedust", "stonfi_v2"}
	if len(groups) != len(want) {
		t.Fatalf("groups = %v, want %v", groups, want)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("groups = %v, want %v", groups, want)
			break
		}
	}
	if docs[2].Source != filepath.Join(dir, "stonfi-v2.xml") {
		t.Errorf("source = %q", docs[2].Source)
	}
}

func TestLoadDirDuplicateGroup(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ston-fi.xml":  daolamaXML,
		"ston_fi.yaml": dedustYAML,
	})
	_, err := LoadDir(dir)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Fatalf("err = %v, want load error", err)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestGroupName(t *testing.T) {
	tests := map[string]string{
		"/abi/schemas/stonfi-v2.xml": "stonfi_v2",
		"dedust.yaml":                "dedust",
		"a-b-c.yml":                  "a_b_c",
	}
	for in, want := range tests {
		if got := GroupName(in); got != want {
			t.Errorf("GroupName(%q) = %q, want %q", in, got, want)
		}
	}
}
