package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.get(ctx, "/categories", nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, cat domain.Category) (domain.Category, error) {
	var out domain.Category
	err := c.send(ctx, http.MethodPost, "/categories", map[string]any{
		"name":      cat.Name,
		"collapsed": cat.Collapsed,
		"sortOrder": cat.SortOrder,
	}, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id string, p domain.CategoryPatch) (domain.Category, error) {
	var out domain.Category
	err := c.send(ctx, http.MethodPatch, "/categories/"+url.PathEscape(id), p, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string, policy store.DeletePolicy) error {
	q := url.Values{}
	if policy != "" {
		q.Set("policy", string(policy))
	}
	_, err := c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), q, nil)
	return err
}

func (c *Client) Reorder(ctx context.Context, categoryID string, order []string) (domain.Category, error) {
	var out domain.Category
	err := c.send(ctx, http.MethodPut, "/categories/"+url.PathEscape(categoryID)+"/order",
		map[string][]string{"toolIds": order}, &out)
	return out, err
}

func (c *Client) ListTools(ctx context.Context, f store.ToolFilter) ([]domain.Tool, error) {
	q := url.Values{}
	if f.CategoryID != "" {
		q.Set("categoryId", f.CategoryID)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	var out []domain.Tool
	err := c.get(ctx, "/tools", q, &out)
	return out, err
}

func (c *Client) GetTool(ctx context.Context, id string) (domain.Tool, error) {
	var out domain.Tool
	err := c.get(ctx, "/tools/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CreateTool sends t without its id; the server assigns one.
func (c *Client) CreateTool(ctx context.Context, t domain.Tool) (domain.Tool, error) {
	t.ID = ""
	var out domain.Tool
	err := c.send(ctx, http.MethodPost, "/tools", t, &out)
	return out, err
}

func (c *Client) UpdateTool(ctx context.Context, id string, p domain.ToolPatch) (domain.Tool, error) {
	var out domain.Tool
	err := c.send(ctx, http.MethodPatch, "/tools/"+url.PathEscape(id), p, &out)
	return out, err
}

// MoveTool re-files a tool. position < 0 appends.
func (c *Client) MoveTool(ctx context.Context, toolID, fromCategoryID, toCategoryID string, position int) (domain.Tool, error) {
	body := map[string]any{
		"fromCategoryId": fromCategoryID,
		"toCategoryId":   toCategoryID,
	}
	if position >= 0 {
		body["position"] = position
	}
	var out domain.Tool
	err := c.send(ctx, http.MethodPost, "/tools/"+url.PathEscape(toolID)+"/move", body, &out)
	return out, err
}

func (c *Client) DeleteTool(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tools/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	err := c.get(ctx, "/collections", nil, &out)
	return out, err
}

func (c *Client) CreateCollection(ctx context.Context, coll domain.Collection) (domain.Collection, error) {
	ids := coll.ToolIDs
	if ids == nil {
		ids = []string{}
	}
	var out domain.Collection
	err := c.send(ctx, http.MethodPost, "/collections", map[string]any{
		"name":    coll.Name,
		"toolIds": ids,
	}, &out)
	return out, err
}

func (c *Client) UpdateCollection(ctx context.Context, id string, p domain.CollectionPatch) (domain.Collection, error) {
	var out domain.Collection
	err := c.send(ctx, http.MethodPatch, "/collections/"+url.PathEscape(id), p, &out)
	return out, err
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) AddToCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	var out domain.Collection
	err := c.send(ctx, http.MethodPost, membershipPath(collectionID, toolID), nil, &out)
	return out, err
}

func (c *Client) RemoveFromCollection(ctx context.Context, collectionID, toolID string) (domain.Collection, error) {
	var out domain.Collection
	err := c.send(ctx, http.MethodDelete, membershipPath(collectionID, toolID), nil, &out)
	return out, err
}

func membershipPath(collectionID, toolID string) string {
	return "/collections/" + url.PathEscape(collectionID) + "/tools/" + url.PathEscape(toolID)
}

// Analysis is a successful /analyze-url response.
type Analysis struct {
	Record  domain.ExtractedRecord
	Scraped domain.ScrapedContent
}

// Analyze asks the server to propose a record for rawURL. A pipeline failure
// is returned as *pipeline.Failure.
func (c *Client) Analyze(ctx context.Context, rawURL string) (*Analysis, error) {
	env, err := c.do(ctx, http.MethodPost, "/analyze-url", nil, map[string]string{"url": rawURL})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &pipeline.Failure{Kind: pipeline.ErrorKind(env.ErrorType), Message: env.Error}
	}
	var out Analysis
	if err := into(env, &out.Record); err != nil {
		return nil, err
	}
	if len(env.Scraped) > 0 {
		if err := json.Unmarshal(env.Scraped, &out.Scraped); err != nil {
			return nil, &decodeError{err}
		}
	}
	return &out, nil
}
