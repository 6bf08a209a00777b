// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// API is the narrow template lifecycle surface consumed by the Reconciler.
type API interface {
	Get(ctx context.Context, name string, profile VersionProfile) (*Spec, error)
	Put(ctx context.Context, name string, body string, profile VersionProfile) error
	Delete(ctx context.Context, name string, profile VersionProfile) error
}

// Client talks to the template endpoints over plain HTTP. The search and
// bulk paths go through the elastic client; template management uses the
// raw API because it must address both the legacy and the modern endpoint
// shapes and inspect raw status codes.
type Client struct {
	// HTTP client.
	Client *http.Client
	// ES server endpoint.
	Endpoint string
	// Basic authentication string, already base64-encoded.
	BasicAuth string
}

var _ API = (*Client)(nil)

func (c *Client) request(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/%s", strings.TrimRight(c.Endpoint, "/"), path), reader)
	if err != nil {
		return nil, err
	}
	if c.BasicAuth != "" {
		r.Header.Add("Authorization", "Basic "+c.BasicAuth)
	}
	if body != nil {
		r.Header.Add("Content-Type", "application/json")
	}
	res, err := c.Client.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, NewResponseError(fmt.Errorf("request failed and failed to read response body, status code: %d, %w", res.StatusCode, err), res.StatusCode, nil)
	}
	if res.StatusCode != http.StatusOK {
		return nil, NewResponseError(fmt.Errorf("request failed, status code: %d, body: %s", res.StatusCode, string(resBody)), res.StatusCode, resBody)
	}
	return resBody, nil
}

func templatePath(name string, profile VersionProfile) string {
	if profile == Modern {
		return "_index_template/" + name
	}
	return "_template/" + name
}

// Get fetches the observed state of the named template. A missing template
// is (nil, nil), not an error. For the legacy profile a failed named lookup
// falls back to a pattern-based listing, since older servers do not support
// exact-name GET for templates installed by other writers.
func (c *Client) Get(ctx context.Context, name string, profile VersionProfile) (*Spec, error) {
	body, err := c.request(ctx, http.MethodGet, templatePath(name, profile), nil)
	if err != nil {
		var respErr ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			if profile == Legacy {
				return c.getLegacyByPattern(ctx, name)
			}
			return nil, nil
		}
		return nil, err
	}
	if profile == Modern {
		return parseModernTemplate(body, name)
	}
	return parseLegacyTemplate(body, name)
}

func (c *Client) getLegacyByPattern(ctx context.Context, name string) (*Spec, error) {
	body, err := c.request(ctx, http.MethodGet, "_template/"+name+"*", nil)
	if err != nil {
		var respErr ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return parseLegacyTemplate(body, name)
}

// Put upserts the rendered template body under the given name.
func (c *Client) Put(ctx context.Context, name string, body string, profile VersionProfile) error {
	_, err := c.request(ctx, http.MethodPut, templatePath(name, profile), []byte(body))
	if err == nil {
		return nil
	}
	var respErr ResponseError
	if errors.As(err, &respErr) && !isUnsupportedAPI(err) &&
		respErr.StatusCode >= http.StatusBadRequest && respErr.StatusCode < http.StatusInternalServerError {
		return &RejectedError{Name: name, StatusCode: respErr.StatusCode, Reason: string(respErr.Body)}
	}
	return err
}

// Delete removes the named template. Deleting a template that does not
// exist is a no-op success.
func (c *Client) Delete(ctx context.Context, name string, profile VersionProfile) error {
	_, err := c.request(ctx, http.MethodDelete, templatePath(name, profile), nil)
	var respErr ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

type modernTemplateListing struct {
	IndexTemplates []struct {
		Name          string `json:"name"`
		IndexTemplate struct {
			IndexPatterns []string `json:"index_patterns"`
			Priority      int64    `json:"priority"`
			Template      struct {
				Settings map[string]any `json:"settings"`
				Mappings map[string]any `json:"mappings"`
			} `json:"template"`
		} `json:"index_template"`
	} `json:"index_templates"`
}

func parseModernTemplate(body []byte, name string) (*Spec, error) {
	var listing modernTemplateListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("cannot parse index template listing: %w", err)
	}
	for _, t := range listing.IndexTemplates {
		if t.Name != name {
			continue
		}
		return &Spec{
			Name:          name,
			IndexPatterns: t.IndexTemplate.IndexPatterns,
			Priority:      t.IndexTemplate.Priority,
			Shards:        settingInt(t.IndexTemplate.Template.Settings, "number_of_shards"),
			Replicas:      settingInt(t.IndexTemplate.Template.Settings, "number_of_replicas"),
			StoresSource:  storesSource(t.IndexTemplate.Template.Mappings),
			Profile:       Modern,
		}, nil
	}
	return nil, nil
}

type legacyTemplate struct {
	IndexPatterns []string       `json:"index_patterns"`
	Settings      map[string]any `json:"settings"`
	Mappings      map[string]any `json:"mappings"`
}

func parseLegacyTemplate(body []byte, name string) (*Spec, error) {
	var listing map[string]legacyTemplate
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("cannot parse template listing: %w", err)
	}
	t, ok := listing[name]
	if !ok {
		return nil, nil
	}
	return &Spec{
		Name:          name,
		IndexPatterns: t.IndexPatterns,
		// The legacy API has no explicit priority; observed priority zero
		// forces reconciliation whenever a non-zero priority is desired,
		// which is the safe direction.
		Priority:     0,
		Shards:       settingInt(t.Settings, "number_of_shards"),
		Replicas:     settingInt(t.Settings, "number_of_replicas"),
		StoresSource: storesSource(t.Mappings),
		Profile:      Legacy,
	}, nil
}

// settingInt digs a numeric index setting out of the settings object, which
// the engine may return nested under "index", flattened with an "index."
// prefix, or bare, with string or numeric values.
func settingInt(settings map[string]any, key string) int64 {
	if settings == nil {
		return 0
	}
	candidates := []any{}
	if idx, ok := settings["index"].(map[string]any); ok {
		candidates = append(candidates, idx[key])
	}
	candidates = append(candidates, settings["index."+key], settings[key])
	for _, v := range candidates {
		switch n := v.(type) {
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed
			}
		case float64:
			return int64(n)
		}
	}
	return 0
}

// storesSource reads _source.enabled from a mappings object; absence means
// source storage is on, the engine default.
func storesSource(mappings map[string]any) bool {
	if mappings == nil {
		return true
	}
	src, ok := mappings["_source"].(map[string]any)
	if !ok {
		return true
	}
	enabled, ok := src["enabled"].(bool)
	if !ok {
		return true
	}
	return enabled
}
