package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/tsingjyujing/langid/controller"
	"github.com/tsingjyujing/langid/profiles"
)

type IdentifyInput struct {
	Content string `json:"content" jsonschema:"the text to identify the language of"`
}

type IdentifyOutput struct {
	Language string `json:"language" jsonschema:"the ISO 639-1 code of the language, empty when nothing matched, und when unavailable"`
}

type EncodingInput struct {
	Content string `json:"content" jsonschema:"the raw content to guess the encoding of"`
	Default string `json:"default,omitempty" jsonschema:"the encoding to use when detection is not conclusive"`
}

type EncodingOutput struct {
	Encoding string `json:"encoding" jsonschema:"the lower-case name of the encoding"`
}

type ListLanguagesInput struct {
	// No input parameters
}

type ListLanguagesOutput struct {
	Languages []profiles.Mapping `json:"languages" jsonschema:"the supported languages"`
}

type LangidMCP struct {
	client   *http.Client
	endpoint url.URL
	token    string
}

func (v LangidMCP) GetUrl(relativePath string, parameters map[string]string) (*url.URL, error) {
	u, err := url.Parse(relativePath)
	if err != nil {
		return nil, err
	}
	u = v.endpoint.ResolveReference(u)
	if parameters != nil {
		q := u.Query()
		for k, v := range parameters {
			if v != "" {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// call sends body to the API and decodes the JSON answer into out.
func (v LangidMCP) call(ctx context.Context, method string, u *url.URL, contentType string, body []byte, out any) error {
	request, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if v.token != "" {
		request.Header.Set("Authorization", "Bearer "+v.token)
	}
	resp, err := v.client.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, u.Path, resp.Status, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (v LangidMCP) IdentifyLanguage(ctx context.Context, req *mcp.CallToolRequest, input IdentifyInput) (*mcp.CallToolResult, IdentifyOutput, error) {
	languageUrl, err := v.GetUrl("/api/v1/language", nil)
	if err != nil {
		return nil, IdentifyOutput{}, err
	}
	body, err := json.Marshal(controller.LanguageRequest{Content: input.Content})
	if err != nil {
		return nil, IdentifyOutput{}, err
	}
	var result controller.LanguageResponse
	if err := v.call(ctx, http.MethodPost, languageUrl, "application/json", body, &result); err != nil {
		return nil, IdentifyOutput{}, err
	}
	return nil, IdentifyOutput{Language: result.Language}, nil
}

func (v LangidMCP) GuessEncoding(ctx context.Context, req *mcp.CallToolRequest, input EncodingInput) (*mcp.CallToolResult, EncodingOutput, error) {
	encodingUrl, err := v.GetUrl("/api/v1/encoding", map[string]string{"default": input.Default})
	if err != nil {
		return nil, EncodingOutput{}, err
	}
	var result controller.EncodingResponse
	if err := v.call(ctx, http.MethodPost, encodingUrl, "application/octet-stream", []byte(input.Content), &result); err != nil {
		return nil, EncodingOutput{}, err
	}
	return nil, EncodingOutput{Encoding: result.Encoding}, nil
}

func (v LangidMCP) ListLanguages(ctx context.Context, req *mcp.CallToolRequest, input ListLanguagesInput) (*mcp.CallToolResult, ListLanguagesOutput, error) {
	listUrl, err := v.GetUrl("/api/v1/languages", nil)
	if err != nil {
		return nil, ListLanguagesOutput{}, err
	}
	var result []profiles.Mapping
	if err := v.call(ctx, http.MethodGet, listUrl, "", nil, &result); err != nil {
		return nil, ListLanguagesOutput{}, err
	}
	return nil, ListLanguagesOutput{Languages: result}, nil
}

func NewMcpCommand() *cobra.Command {
	var langidEndpoint string
	var token string

	mcpCommand := &cobra.Command{
		Use:   "mcp",
		Short: "Starting MCP server",
		Run: func(cmd *cobra.Command, args []string) {
			parsedURL, err := url.Parse(langidEndpoint)
			if err != nil {
				logger.Fatalf("Invalid langid endpoint URL: %v", err)
			}
			v := LangidMCP{
				client:   http.DefaultClient,
				endpoint: *parsedURL,
				token:    token,
			}
			server := mcp.NewServer(&mcp.Implementation{Name: "langid-mcp", Title: "MCP server for language and encoding identification", Version: "v1.0.0"}, nil)
			mcp.AddTool(server, &mcp.Tool{Name: "identify_language", Description: "Identify the natural language of a text"}, v.IdentifyLanguage)
			mcp.AddTool(server, &mcp.Tool{Name: "guess_encoding", Description: "Guess the character encoding of raw content, falling back to the given default"}, v.GuessEncoding)
			mcp.AddTool(server, &mcp.Tool{Name: "list_languages", Description: "List the languages the identifier supports"}, v.ListLanguages)
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				logger.Fatal(err)
			}
		},
	}
	mcpCommand.Flags().StringVarP(
		&langidEndpoint,
		"endpoint",
		"e", "http://localhost:8080",
		"langid server endpoint URL",
	)
	mcpCommand.Flags().StringVar(&token, "token", "", "Bearer token of the langid server")
	return mcpCommand
}
