package s3

import "testing"

func TestParseEndpoint(t *testing.T) {
	cases := map[string]string{
		"http://minio:9000":  "minio:9000",
		"https://s3.aws.com": "s3.aws.com",
		"localhost:9000":     "localhost:9000",
	}
	for in, want := range cases {
		if got := parseEndpoint(in); got != want {
			t.Fatalf("parseEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObjectURL(t *testing.T) {
	c, err := NewClient(Options{Endpoint: "http://minio:9000", Bucket: "media", PublicBaseURL: "https://cdn.example.com/"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got := c.ObjectURL("/property_images/l1/a.jpg")
	if got != "https://cdn.example.com/media/property_images/l1/a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(Options{Endpoint: "minio:9000"}, nil); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
