package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tillpoint/internal/apierror"
)

// ImageStoreClient talks to the image store sidecar that holds close-out
// photographs (count sheets, meter photos). The backend never stores image
// bytes itself; closing a period only needs the references to be verified.
type ImageStoreClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewImageStoreClient(baseURL string) *ImageStoreClient {
	return &ImageStoreClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type verifyRequest struct {
	Refs []string `json:"refs"`
}

type verifyResponse struct {
	Missing []string `json:"missing"`
}

// Verify asks the sidecar whether every reference exists. A non-empty missing
// list is a validation failure, not an infrastructure error.
func (c *ImageStoreClient) Verify(ctx context.Context, refs []string) error {
	if len(refs) == 0 {
		return nil
	}
	body, err := json.Marshal(verifyRequest{Refs: refs})
	if err != nil {
		return fmt.Errorf("imagestore: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("imagestore: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("imagestore: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("imagestore: sidecar returned %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("imagestore: decode response: %w", err)
	}
	if len(result.Missing) > 0 {
		return apierror.NewFieldValidation("attachments", fmt.Sprintf("unknown attachment references: %v", result.Missing))
	}
	return nil
}

// VerifiedImageStore wraps ImageStoreClient with the circuit breaker so a
// flapping sidecar fast-fails instead of stalling every period close.
type VerifiedImageStore struct {
	client *ImageStoreClient
	cb     *CircuitBreaker
}

func NewVerifiedImageStore(client *ImageStoreClient, cb *CircuitBreaker) *VerifiedImageStore {
	return &VerifiedImageStore{client: client, cb: cb}
}

func (v *VerifiedImageStore) Verify(ctx context.Context, refs []string) error {
	if len(refs) == 0 {
		return nil
	}
	// Missing references mean the sidecar answered fine; only transport and
	// server errors count against the breaker.
	var verr *apierror.ValidationError
	err := v.cb.Execute(func() error {
		err := v.client.Verify(ctx, refs)
		if errors.As(err, &verr) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if verr != nil {
		return verr
	}
	return nil
}

// State exposes the breaker state for the health endpoint.
func (v *VerifiedImageStore) State() CBState {
	return v.cb.State()
}
