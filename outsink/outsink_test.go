package outsink

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
)

func TestParseGCSPath(t *testing.T) {
	cases := []struct {
		in         string
		wantBucket string
		wantObject string
		wantOK     bool
		wantErr    bool
	}{
		{in: "out.png"},
		{in: "/tmp/out.png"},
		{in: "gs://renders/cornell/out.png", wantBucket: "renders", wantObject: "cornell/out.png", wantOK: true},
		{in: "gs://renders", wantOK: true, wantErr: true},
		{in: "gs:///out.png", wantOK: true, wantErr: true},
		{in: "gs://renders/", wantOK: true, wantErr: true},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			bucket, object, ok, err := ParseGCSPath(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseGCSPath(%q) error = %v, want error %v", tc.in, err, tc.wantErr)
			}
			if ok != tc.wantOK {
				t.Errorf("ParseGCSPath(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			}
			if tc.wantErr {
				return
			}
			if bucket != tc.wantBucket || object != tc.wantObject {
				t.Errorf("ParseGCSPath(%q) = (%q, %q), want (%q, %q)", tc.in, bucket, object, tc.wantBucket, tc.wantObject)
			}
		})
	}
}

func TestCreateLocal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.ppm")

	w, err := Create(ctx, path, false)
	if err != nil {
		t.Fatalf("Unexpected error from Create: %v", err)
	}
	if _, err := io.WriteString(w, "first"); err != nil {
		t.Fatalf("Unexpected error writing: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Unexpected error from Close: %v", err)
	}

	if _, err := Create(ctx, path, false); err == nil {
		t.Errorf("Create without overwrite succeeded on an existing file")
	}

	w, err = Create(ctx, path, true)
	if err != nil {
		t.Fatalf("Unexpected error from Create with overwrite: %v", err)
	}
	if _, err := io.WriteString(w, "2nd"); err != nil {
		t.Fatalf("Unexpected error writing: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Unexpected error from Close: %v", err)
	}

	r, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Unexpected error from Open: %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Unexpected error reading: %v", err)
	}
	if string(got) != "2nd" {
		t.Errorf("Read back %q, want %q", got, "2nd")
	}
}
