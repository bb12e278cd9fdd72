package cache

import (
	"errors"
	"testing"
)

func TestPutGet(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := Key("hn", "https://example.com/a")
	content := []byte("<html><body>hello</body></html>")
	if err := c.Put(key, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Get() = %q, want %q", got, content)
	}
}

func TestGet_Missing(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Get(Key("hn", "https://example.com/missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	_, err = c.GetText(Key("hn", "https://example.com/missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetText() error = %v, want ErrNotFound", err)
	}
}

func TestPut_Overwrites(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := Key("hn", "https://example.com/a")
	if err := c.Put(key, []byte("first")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put(key, []byte("second")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "second")
	}
}

func TestTextStoredSeparately(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := Key("hn", "https://example.com/a")
	if err := c.Put(key, []byte("<html>raw</html>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.PutText(key, "extracted text"); err != nil {
		t.Fatalf("PutText() error = %v", err)
	}

	text, err := c.GetText(key)
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if text != "extracted text" {
		t.Errorf("GetText() = %q, want %q", text, "extracted text")
	}

	raw, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(raw) != "<html>raw</html>" {
		t.Errorf("Get() = %q, raw body clobbered by PutText", raw)
	}
}

func TestKey_DistinctPerSource(t *testing.T) {
	url := "https://example.com/shared"
	if Key("hn", url) == Key("lobsters", url) {
		t.Error("same URL from different sources produced the same key")
	}
	if Key("hn", url) != Key("hn", url) {
		t.Error("key is not stable for the same inputs")
	}
}

func TestHash_TracksContent(t *testing.T) {
	a := Hash([]byte("version one"))
	b := Hash([]byte("version two"))
	if a == b {
		t.Error("different content produced the same hash")
	}
	if a != Hash([]byte("version one")) {
		t.Error("hash is not stable for the same content")
	}
}
