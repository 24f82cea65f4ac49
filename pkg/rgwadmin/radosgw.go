// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

const (
	authRegion        = "default"
	service           = "s3"
	connectionTimeout = 3 * time.Second

	// sha256 of an empty payload, every admin call is a bodiless GET
	emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

var (
	errNoEndpoint    = errors.New("endpoint not set")
	errNoAccessKey   = errors.New("access key not set")
	errNoSecretKey   = errors.New("secret key not set")
	errNoCredentials = errors.New("credentials provider not set")
)

// HTTPClient defines an interface for HTTP operations.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// API represents a Ceph RGW Admin Ops API client.
type API struct {
	Endpoint    string
	Credentials aws.CredentialsProvider
	HTTPClient  HTTPClient

	signer *v4.Signer
}

// New creates a new Ceph RGW client signing with a static access/secret key pair.
func New(endpoint, accessKey, secretKey string, httpClient HTTPClient) (*API, error) {
	if err := validateConfig(endpoint, accessKey, secretKey); err != nil {
		return nil, err
	}

	return NewWithCredentials(endpoint, credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""), httpClient)
}

// NewWithCredentials creates a new Ceph RGW client that signs requests with
// credentials resolved from the given provider.
func NewWithCredentials(endpoint string, creds aws.CredentialsProvider, httpClient HTTPClient) (*API, error) {
	if endpoint == "" {
		return nil, errNoEndpoint
	}
	if creds == nil {
		return nil, errNoCredentials
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectionTimeout}
	}

	return &API{
		Endpoint:    NormalizeEndpoint(endpoint),
		Credentials: creds,
		HTTPClient:  httpClient,
		signer:      v4.NewSigner(),
	}, nil
}

// NormalizeEndpoint turns a bare host or IP into a base URL. Hosts without a
// scheme are assumed to be plain HTTP.
func NormalizeEndpoint(host string) string {
	host = strings.TrimSpace(host)
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}

// validateConfig ensures required parameters are set.
func validateConfig(endpoint, accessKey, secretKey string) error {
	switch {
	case endpoint == "":
		return errNoEndpoint
	case accessKey == "":
		return errNoAccessKey
	case secretKey == "":
		return errNoSecretKey
	default:
		return nil
	}
}

// call performs a signed GET against the RGW Admin Ops API and returns the
// body of a 200 response.
func (api *API) call(ctx context.Context, path string, args url.Values) ([]byte, error) {
	reqURL := buildQueryPath(api.Endpoint, path, args.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	if err := api.signRequest(ctx, req); err != nil {
		return nil, err
	}

	resp, err := api.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: req.Method, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := parseResponse(resp)
	if err != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			return nil, &TransportError{Op: req.Method, URL: reqURL, Err: err}
		}
		return nil, err
	}

	log.Debug().
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("rgw admin response")

	return body, nil
}

// signRequest signs an HTTP request using AWS v4 signing.
func (api *API) signRequest(ctx context.Context, req *http.Request) error {
	creds, err := api.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve signing credentials: %w", err)
	}

	req.Header.Set("X-Amz-Content-Sha256", emptyPayloadHash)
	return api.signer.SignHTTP(ctx, creds, req, emptyPayloadHash, service, authRegion, time.Now())
}

// parseResponse reads and validates the HTTP response.
func parseResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newRequestError(resp.StatusCode, body)
	}

	return body, nil
}
