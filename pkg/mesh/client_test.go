package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/menta2k/face-analyzer/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

// serveReply returns a test server that answers /v1/landmarks with the given
// response after checking the request shape.
func serveReply(t *testing.T, reply landmarkResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/landmarks" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}

		var req landmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.Image == "" {
			t.Error("Expected a base64 image in the request")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
}

func TestDetectWithMesh(t *testing.T) {
	mesh := make([][3]float64, types.MeshSize)
	for i := range mesh {
		mesh[i] = [3]float64{float64(i % 100), float64(i % 80), 0.1}
	}
	server := serveReply(t, landmarkResponse{
		Found:      true,
		Confidence: 0.95,
		Box:        types.BBox{X: 10, Y: 12, W: 50, H: 60},
		Mesh:       mesh,
	})
	defer server.Close()

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	landmarks, err := c.Detect(context.Background(), createTestImage(100, 100))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if landmarks == nil {
		t.Fatal("Expected landmarks, got nil")
	}
	if landmarks.BBox != (types.BBox{X: 10, Y: 12, W: 50, H: 60}) {
		t.Errorf("Unexpected box: %+v", landmarks.BBox)
	}
	if landmarks.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %f", landmarks.Confidence)
	}
	if !landmarks.HasMesh() {
		t.Fatal("Expected a dense mesh")
	}
	if landmarks.Mesh[5] != (types.Point{X: 5, Y: 5, Z: 0.1}) {
		t.Errorf("Unexpected mesh point: %+v", landmarks.Mesh[5])
	}
}

func TestDetectDropsShortMesh(t *testing.T) {
	server := serveReply(t, landmarkResponse{
		Found:      true,
		Confidence: 0.8,
		Box:        types.BBox{X: 5, Y: 5, W: 40, H: 40},
		Mesh:       make([][3]float64, 100), // not a full mesh
	})
	defer server.Close()

	c, _ := NewClient(server.URL)
	defer c.Close()

	landmarks, err := c.Detect(context.Background(), createTestImage(64, 64))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if landmarks == nil {
		t.Fatal("Expected box and confidence despite the dropped mesh")
	}
	if landmarks.HasMesh() {
		t.Error("A short mesh must be dropped")
	}
	if landmarks.Mesh != nil {
		t.Errorf("Expected nil mesh, got %d points", len(landmarks.Mesh))
	}
}

func TestDetectNoFace(t *testing.T) {
	server := serveReply(t, landmarkResponse{Found: false})
	defer server.Close()

	c, _ := NewClient(server.URL)
	defer c.Close()

	landmarks, err := c.Detect(context.Background(), createTestImage(64, 64))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if landmarks != nil {
		t.Errorf("Expected nil landmarks for no-face reply, got %+v", landmarks)
	}
}

func TestDetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mesh model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := NewClient(server.URL)
	defer c.Close()

	if _, err := c.Detect(context.Background(), createTestImage(64, 64)); err == nil {
		t.Fatal("Expected error for HTTP 500")
	}
}

func TestDetectBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	c, _ := NewClient(server.URL)
	defer c.Close()

	if _, err := c.Detect(context.Background(), createTestImage(64, 64)); err == nil {
		t.Fatal("Expected error for undecodable reply")
	}
}

func TestNewClientDefaultURL(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != defaultServerURL {
		t.Errorf("Expected default URL %q, got %q", defaultServerURL, c.baseURL)
	}

	c, _ = NewClient("http://mesh.local:9090/")
	if c.baseURL != "http://mesh.local:9090" {
		t.Errorf("Expected trailing slash trimmed, got %q", c.baseURL)
	}
}
