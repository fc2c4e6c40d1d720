package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairstudio/internal/domain"
	"hairstudio/internal/imagegen"
)

type fakeAPI struct {
	mu       sync.Mutex
	balance  int
	requests []imagegen.Request
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(domain.UserEntitlement{ID: "u1", Email: "u@example.com", TrialBalance: f.balance})
	})
	mux.HandleFunc("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req imagegen.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(imagegen.Response{ImageURL: "data:image/png;base64,cG5n"})
	})
	return mux
}

func setPreviewFlags(t *testing.T, serverURL string) {
	t.Helper()
	apiURL, token, catalogPath, verbose = serverURL, "tok", "", false
	previewFlags.photo = ""
	previewFlags.style = "leaf-cut"
	previewFlags.color = "blonde"
	previewFlags.gender = "male"
	previewFlags.angles = []string{"Front", "Side"}
	previewFlags.outDir = t.TempDir()
	previewFlags.zipPath = ""
	previewFlags.debounce = time.Millisecond
	previewFlags.timeout = 5 * time.Second
}

func TestRunPreview_HairOnlyTwoAngles(t *testing.T) {
	api := &fakeAPI{balance: 5}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()
	setPreviewFlags(t, srv.URL)
	previewFlags.zipPath = filepath.Join(t.TempDir(), "out.zip")

	var out bytes.Buffer
	previewCmd.SetOut(&out)
	require.NoError(t, runPreview(context.Background(), previewCmd))

	require.Len(t, api.requests, 2)
	assert.Nil(t, api.requests[0].SourceImageDataURL)
	assert.Equal(t, "Front", api.requests[0].Angle)
	assert.Equal(t, "Side", api.requests[1].Angle)
	assert.Equal(t, "male", api.requests[0].Gender)
	assert.Equal(t, "ash blonde hair", api.requests[0].ColorDescription)
	assert.Contains(t, api.requests[0].StyleDescription, "Leaf cut with airy middle part flow")
	assert.Contains(t, out.String(), "trial previews left: 3")

	info, err := os.Stat(previewFlags.zipPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunPreview_WithPhoto(t *testing.T) {
	api := &fakeAPI{balance: 1}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()
	setPreviewFlags(t, srv.URL)
	previewFlags.angles = []string{"Back"}
	previewFlags.gender = "female"
	previewFlags.style = "glass-hair"

	photo := filepath.Join(t.TempDir(), "me.png")
	png := []byte("\x89PNG\r\n\x1a\n0000")
	require.NoError(t, os.WriteFile(photo, png, 0o644))
	previewFlags.photo = photo

	previewCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, runPreview(context.Background(), previewCmd))
	require.Len(t, api.requests, 1)
	require.NotNil(t, api.requests[0].SourceImageDataURL)
	assert.Contains(t, *api.requests[0].SourceImageDataURL, "data:image/png;base64,")
	assert.Equal(t, "Back", api.requests[0].Angle)
}

func TestRunPreview_ExhaustedTrialsStopsBeforeCalling(t *testing.T) {
	api := &fakeAPI{balance: 0}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()
	setPreviewFlags(t, srv.URL)

	previewCmd.SetOut(&bytes.Buffer{})
	err := runPreview(context.Background(), previewCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "studio checkout")
	assert.Empty(t, api.requests)
}

func TestRunPreview_NoTokenRequiresSignIn(t *testing.T) {
	api := &fakeAPI{balance: 5}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()
	setPreviewFlags(t, srv.URL)
	token = ""

	previewCmd.SetOut(&bytes.Buffer{})
	err := runPreview(context.Background(), previewCmd)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Empty(t, api.requests)
}

func TestLoadDefaultCatalog(t *testing.T) {
	catalogPath = ""
	cat, err := loadCatalog()
	require.NoError(t, err)
	assert.Len(t, cat.StylesFor(domain.GenderFemale), 6)
	assert.Len(t, cat.StylesFor(domain.GenderMale), 6)
	_, ok := cat.Color("black")
	assert.True(t, ok)
}
