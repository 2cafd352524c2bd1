package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/cinegraph/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// GraphOllamaClient implements ai.GraphAIClient against a locally hosted
// Ollama server. At most MaxConcurrentRequests calls run at once.
type GraphOllamaClient struct {
	model string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	Model string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client. An empty BaseURL
// uses the client library default.
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	headers := map[string]string{}
	if params.ApiKey != "" {
		headers["Authorization"] = "Bearer " + params.ApiKey
	}
	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: headers,
			rt:      http.DefaultTransport,
		},
	}

	if u == nil {
		cli, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		return newClient(params, cli), nil
	}

	return newClient(params, api.NewClient(u, httpClient)), nil
}

func newClient(params NewGraphOllamaClientParams, cli *api.Client) *GraphOllamaClient {
	parallel := params.MaxConcurrentRequests
	if parallel <= 0 {
		parallel = 1
	}
	return &GraphOllamaClient{
		model:   params.Model,
		reqLock: semaphore.NewWeighted(parallel),
		Client:  cli,
	}
}

var _ ai.GraphAIClient = (*GraphOllamaClient)(nil)
