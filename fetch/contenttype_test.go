package fetch

import "testing"

func TestClassifyArchiveByExtension(t *testing.T) {
	cases := []struct {
		path string
		want ArchiveFormat
		ok   bool
	}{
		{"lib-1.0.tar.gz", FormatTarGz, true},
		{"lib-1.0.tar.xz", FormatTarXz, true},
		{"lib-1.0.zip", FormatUnknown, false},
	}
	for _, c := range cases {
		got, err := ClassifyArchive(&Resource{Kind: ResourceFile, Path: c.path})
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", c.path, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected an error", c.path)
		}
		if c.ok && got != c.want {
			t.Errorf("%s: got %v, want %v", c.path, got, c.want)
		}
	}
}

func TestClassifyArchiveDirIsErrIsDir(t *testing.T) {
	_, err := ClassifyArchive(&Resource{Kind: ResourceDir, Path: "/tmp/whatever"})
	if err != ErrIsDir {
		t.Errorf("got %v, want ErrIsDir", err)
	}
}

func TestClassifyArchiveHTTPContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        ArchiveFormat
		ok          bool
	}{
		{"application/gzip", FormatTarGz, true},
		{"application/x-gzip", FormatTarGz, true},
		{"application/tar+gzip", FormatTarGz, true},
		{"application/x-xz", FormatTarXz, true},
		{"text/html", FormatUnknown, false},
		{"", FormatUnknown, false},
	}
	for _, c := range cases {
		got, err := ClassifyArchive(&Resource{Kind: ResourceHTTP, ContentType: c.contentType})
		if c.ok && err != nil {
			t.Errorf("%q: unexpected error: %v", c.contentType, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%q: expected an error", c.contentType)
		}
		if c.ok && got != c.want {
			t.Errorf("%q: got %v, want %v", c.contentType, got, c.want)
		}
	}
}

func TestClassifyArchiveOctetStreamContentDisposition(t *testing.T) {
	r := &Resource{
		Kind:               ResourceHTTP,
		ContentType:        "application/octet-stream",
		ContentDisposition: `attachment; filename="lib-1.0.tar.gz"`,
	}
	got, err := ClassifyArchive(r)
	if err != nil {
		t.Fatal(err)
	}
	if got != FormatTarGz {
		t.Errorf("got %v, want FormatTarGz", got)
	}
}

func TestClassifyArchiveOctetStreamWrongExtension(t *testing.T) {
	r := &Resource{
		Kind:               ResourceHTTP,
		ContentType:        "application/octet-stream",
		ContentDisposition: `attachment; filename="lib-1.0.zip"`,
	}
	if _, err := ClassifyArchive(r); err == nil {
		t.Error("expected error for non-tar.gz attachment filename")
	}
}

func TestIsTarGzAttachmentFilenameStarForm(t *testing.T) {
	if !isTarGzAttachment(`attachment; filename*=UTF-8''lib.tar.gz`) {
		t.Error("expected filename* form to match")
	}
}

func TestIsTarGzAttachmentPrefixCaseInsensitive(t *testing.T) {
	if !isTarGzAttachment(`ATTACHMENT; FILENAME="archive.tar.gz"`) {
		t.Error("expected uppercase attachment/filename prefix to match")
	}
}
