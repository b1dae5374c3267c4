// Package arcgis publishes feature layers to an ArcGIS Online / Portal
// feature service via its REST API.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
	"github.com/couchcryptid/reach-data-etl/internal/export"
)

// Config holds the portal connection settings.
type Config struct {
	PortalURL   string
	Username    string
	Password    string
	ServiceName string
	LayerName   string
	Timeout     time.Duration
}

// Client drives the portal REST API. It implements the pipeline's Uploader.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	token       string
	tokenExpiry time.Time

	// featureServerURL and layerURL are set by EnsureLayer.
	featureServerURL string
	layerURL         string
}

// NewClient creates a portal client. EnsureLayer must run before UploadBatch.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.LayerName == "" {
		cfg.LayerName = cfg.ServiceName
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// EnsureLayer creates the hosted feature service and applies the derived
// field schema to its polyline layer. The service is created empty and the
// layer added through the admin API, which is the only path that accepts an
// explicit field list.
func (c *Client) EnsureLayer(ctx context.Context, schema export.Schema) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	serviceURL, err := c.createService(ctx)
	if err != nil {
		return err
	}
	c.featureServerURL = serviceURL
	c.layerURL = strings.TrimRight(serviceURL, "/") + "/0"

	if err := c.addLayerDefinition(ctx, serviceURL, schema); err != nil {
		return err
	}

	c.logger.Info("feature layer ready", "service", c.cfg.ServiceName, "url", c.layerURL)
	return nil
}

// UploadBatch appends one batch of feature records to the layer.
func (c *Client) UploadBatch(ctx context.Context, records []export.Record) error {
	if c.layerURL == "" {
		return fmt.Errorf("layer not initialized")
	}
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	features := make([]feature, 0, len(records))
	for _, rec := range records {
		features = append(features, feature{
			Attributes: encodeAttributes(rec.Attributes),
			Geometry:   rec.Geometry,
		})
	}
	payload, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	form := url.Values{
		"f":        {"json"},
		"token":    {c.token},
		"features": {string(payload)},
	}

	var result struct {
		AddResults []struct {
			ObjectID int64         `json:"objectId"`
			Success  bool          `json:"success"`
			Error    *restAPIError `json:"error"`
		} `json:"addResults"`
		Error *restAPIError `json:"error"`
	}
	if err := c.postForm(ctx, c.layerURL+"/addFeatures", form, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("addFeatures: %w", result.Error)
	}

	for i, ar := range result.AddResults {
		if !ar.Success {
			return fmt.Errorf("addFeatures: record %d rejected: %w", i, ar.Error)
		}
	}
	if len(result.AddResults) != len(features) {
		return fmt.Errorf("addFeatures: %d results for %d features", len(result.AddResults), len(features))
	}
	return nil
}

// ensureToken fetches a portal token, reusing the cached one until close to
// expiry.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	form := url.Values{
		"f":          {"json"},
		"username":   {c.cfg.Username},
		"password":   {c.cfg.Password},
		"referer":    {c.cfg.PortalURL},
		"expiration": {"60"},
	}

	var result struct {
		Token   string        `json:"token"`
		Expires int64         `json:"expires"` // epoch ms
		Error   *restAPIError `json:"error"`
	}
	u := c.cfg.PortalURL + "/sharing/rest/generateToken"
	if err := c.postForm(ctx, u, form, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("generateToken: %w", result.Error)
	}
	if result.Token == "" {
		return fmt.Errorf("generateToken: empty token in response")
	}

	c.token = result.Token
	c.tokenExpiry = time.UnixMilli(result.Expires)
	return nil
}

// createService creates an empty hosted feature service and returns its
// FeatureServer URL. An already-existing service with the same name is an
// error; runs target a fresh service so the derived schema always matches
// the uploaded records.
func (c *Client) createService(ctx context.Context) (string, error) {
	createParams := map[string]any{
		"name":                  c.cfg.ServiceName,
		"serviceDescription":    "Whitewater reach hydrolines and attributes",
		"hasStaticData":         true,
		"capabilities":          "Query,Create",
		"spatialReference":      map[string]int{"wkid": domain.WKID},
		"allowGeometryUpdates":  false,
		"units":                 "esriDecimalDegrees",
		"supportedQueryFormats": "JSON",
	}
	paramsJSON, err := json.Marshal(createParams)
	if err != nil {
		return "", fmt.Errorf("marshal createParameters: %w", err)
	}

	form := url.Values{
		"f":                {"json"},
		"token":            {c.token},
		"createParameters": {string(paramsJSON)},
		"outputType":       {"featureService"},
	}

	var result struct {
		Success    bool          `json:"success"`
		ServiceURL string        `json:"encodedServiceURL"`
		PlainURL   string        `json:"serviceurl"`
		Error      *restAPIError `json:"error"`
	}
	u := fmt.Sprintf("%s/sharing/rest/content/users/%s/createService", c.cfg.PortalURL, c.cfg.Username)
	if err := c.postForm(ctx, u, form, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("createService: %w", result.Error)
	}

	serviceURL := result.ServiceURL
	if serviceURL == "" {
		serviceURL = result.PlainURL
	}
	if !result.Success || serviceURL == "" {
		return "", fmt.Errorf("createService: no service URL in response")
	}
	return serviceURL, nil
}

// addLayerDefinition adds the polyline layer with the derived field list via
// the admin endpoint.
func (c *Client) addLayerDefinition(ctx context.Context, serviceURL string, schema export.Schema) error {
	layer := map[string]any{
		"name":          c.cfg.LayerName,
		"type":          "Feature Layer",
		"geometryType":  "esriGeometryPolyline",
		"fields":        encodeFields(schema),
		"objectIdField": export.ObjectIDField,
		"extent": map[string]any{
			"xmin": -180, "ymin": -90, "xmax": 180, "ymax": 90,
			"spatialReference": map[string]int{"wkid": domain.WKID},
		},
	}
	defJSON, err := json.Marshal(map[string]any{"layers": []any{layer}})
	if err != nil {
		return fmt.Errorf("marshal layer definition: %w", err)
	}

	form := url.Values{
		"f":               {"json"},
		"token":           {c.token},
		"addToDefinition": {string(defJSON)},
	}

	var result struct {
		Success bool          `json:"success"`
		Error   *restAPIError `json:"error"`
	}
	if err := c.postForm(ctx, adminURL(serviceURL)+"/addToDefinition", form, &result); err != nil {
		return err
	}
	if result.Error != nil {
		return fmt.Errorf("addToDefinition: %w", result.Error)
	}
	if !result.Success {
		return fmt.Errorf("addToDefinition: portal reported failure")
	}
	return nil
}

// adminURL rewrites a FeatureServer URL onto the service admin endpoint.
func adminURL(serviceURL string) string {
	return strings.Replace(serviceURL, "/rest/services/", "/rest/admin/services/", 1)
}

func (c *Client) postForm(ctx context.Context, fullURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("portal request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("portal API error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// feature is one row in an addFeatures payload.
type feature struct {
	Attributes map[string]any  `json:"attributes"`
	Geometry   export.Polyline `json:"geometry"`
}

// encodeAttributes converts attribute values to the REST API's wire types:
// dates become epoch milliseconds, nils stay null.
func encodeAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UnixMilli()
			continue
		}
		out[k] = v
	}
	return out
}

// encodeFields maps the derived schema onto esriFieldType definitions.
func encodeFields(schema export.Schema) []map[string]any {
	fields := make([]map[string]any, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		def := map[string]any{
			"name":     f.Name,
			"type":     esriFieldType(f.Type),
			"alias":    f.Name,
			"nullable": f.Nullable,
			"editable": f.Editable,
		}
		if f.Type == domain.FieldString {
			def["length"] = f.Length
		}
		fields = append(fields, def)
	}
	return fields
}

func esriFieldType(t domain.FieldType) string {
	switch t {
	case export.TypeOID:
		return "esriFieldTypeOID"
	case domain.FieldString:
		return "esriFieldTypeString"
	case domain.FieldInteger:
		return "esriFieldTypeInteger"
	case domain.FieldFloat:
		return "esriFieldTypeDouble"
	case domain.FieldDate:
		return "esriFieldTypeDate"
	}
	return "esriFieldTypeString"
}

// restAPIError is the portal's JSON error envelope.
type restAPIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *restAPIError) Error() string {
	if e == nil {
		return "unknown portal error"
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("code %d: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}
