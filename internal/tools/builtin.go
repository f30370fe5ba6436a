package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/xiaot623/learnchat/internal/adapter/media"
	"github.com/xiaot623/learnchat/internal/adapter/search"
	"github.com/xiaot623/learnchat/internal/adapter/selfapi"
)

const (
	Weather               = "weather"
	Date                  = "date"
	GenerateRecipe        = "generateRecipe"
	ReviewRecipe          = "reviewRecipe"
	TavilySearch          = "tvlySearch"
	GenerateImage         = "generateImage"
	GenerateQuote         = "generateQuote"
	GenerateTopics        = "generateTopics"
	GenerateCourseOutline = "generateCourseOutline"
	AnalyzeImage          = "analyzeImage"
	SaveCourseToBlob      = "saveCourseToBlob"
)

// ChatToolNames is the tool set of the chat endpoint.
var ChatToolNames = []string{
	Weather, Date, GenerateRecipe, ReviewRecipe, TavilySearch, GenerateImage,
	GenerateQuote, GenerateTopics, GenerateCourseOutline, AnalyzeImage, SaveCourseToBlob,
}

// StreamTextToolNames is the tool set of the streamText endpoint.
var StreamTextToolNames = []string{Weather, Date, TavilySearch}

// The date tool reports a fixed day.
const fixedDate = "March 6 2025"

const useInAnswer = " Do not output the tool call directly but use it in your final user-facing answer."

// Searcher runs web searches.
type Searcher interface {
	Search(ctx context.Context, req *search.Request) (*search.Response, error)
}

// MediaGenerator renders images from prompts.
type MediaGenerator interface {
	Generate(ctx context.Context, req *media.GenerateRequest) (*media.GenerateResponse, error)
}

// SelfAPI reaches the server's own endpoints.
type SelfAPI interface {
	Review(ctx context.Context, recipe string, ingredients []string) (json.RawMessage, error)
	GenerateQuote(ctx context.Context, body any) (json.RawMessage, error)
	GenerateTopics(ctx context.Context, body any) (json.RawMessage, error)
	GenerateCourseOutline(ctx context.Context, body any) (json.RawMessage, error)
	ImageVision(ctx context.Context, imageURL, prompt string) (json.RawMessage, error)
	SaveCourse(ctx context.Context, title string, content any) (*selfapi.SaveCourseResponse, error)
	CourseURL(id string) string
}

// Deps are the collaborators of the built-in tools.
type Deps struct {
	Search Searcher
	Media  MediaGenerator
	Self   SelfAPI
	// Temperature returns a weather reading in fahrenheit. Defaults to a
	// uniform random integer in [32, 90].
	Temperature func() int
}

// NewBuiltinRegistry returns a registry holding every built-in tool.
func NewBuiltinRegistry(deps Deps) *Registry {
	if deps.Temperature == nil {
		deps.Temperature = func() int { return 32 + rand.IntN(59) }
	}

	r := NewRegistry()
	r.MustRegister(weatherTool(deps))
	r.MustRegister(dateTool())
	r.MustRegister(generateRecipeTool())
	r.MustRegister(reviewRecipeTool(deps))
	r.MustRegister(tavilySearchTool(deps))
	r.MustRegister(generateImageTool(deps))
	r.MustRegister(generateQuoteTool(deps))
	r.MustRegister(generateTopicsTool(deps))
	r.MustRegister(generateCourseOutlineTool(deps))
	r.MustRegister(analyzeImageTool(deps))
	r.MustRegister(saveCourseToBlobTool(deps))
	return r
}

func stringProp(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func stringListProp(desc string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: desc,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
	}
}

func object(props map[string]jsonschema.Definition, required ...string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Properties: props, Required: required}
}

type recipeArgs struct {
	Recipe      string   `json:"recipe"`
	Ingredients []string `json:"ingredients"`
}

func weatherTool(deps Deps) Tool {
	return Tool{
		Name:        Weather,
		Description: "Get the weather in a location (fahrenheit)." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"location": stringProp("The location to get the weather for"),
		}, "location"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Location string `json:"location"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return map[string]any{"location": args.Location, "temperature": deps.Temperature()}, nil
		},
	}
}

func dateTool() Tool {
	return Tool{
		Name:        Date,
		Description: "Get the current date." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"timezone": stringProp("The timezone to get the date for"),
		}, "timezone"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Timezone string `json:"timezone"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return map[string]any{"timezone": args.Timezone, "date": fixedDate}, nil
		},
	}
}

func generateRecipeTool() Tool {
	return Tool{
		Name:        GenerateRecipe,
		Description: "Generate a recipe based on the user input." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"recipe":      stringProp("The recipe to generate"),
			"ingredients": stringListProp("The ingredients for the recipe"),
		}, "recipe", "ingredients"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args recipeArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Ingredients == nil {
				args.Ingredients = []string{}
			}
			return map[string]any{
				"response":    args,
				"recipe":      args.Recipe,
				"ingredients": args.Ingredients,
			}, nil
		},
	}
}

func reviewRecipeTool(deps Deps) Tool {
	return Tool{
		Name:        ReviewRecipe,
		Description: "Review the ingredients of a recipe to ensure they are correct." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"recipe":      stringProp("The recipe to review"),
			"ingredients": stringListProp("The ingredients for the recipe"),
		}, "recipe", "ingredients"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args recipeArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if deps.Self == nil {
				return nil, errors.New("review service is not configured")
			}
			out, err := deps.Self.Review(ctx, args.Recipe, args.Ingredients)
			if err != nil {
				return nil, fmt.Errorf("failed to review recipe: %w", err)
			}
			var resp struct {
				Review string `json:"review"`
			}
			if err := json.Unmarshal(out, &resp); err != nil {
				return nil, fmt.Errorf("failed to review recipe: %w", err)
			}
			return map[string]string{"review": resp.Review}, nil
		},
	}
}

func tavilySearchTool(deps Deps) Tool {
	return Tool{
		Name: TavilySearch,
		Description: "Use Tavily to search the internet. Provide a query for best results." + useInAnswer +
			" Do not output topic-related search results directly, but use them to output relevant topics with the generateTopics tool." +
			" Do not use this tool for searching GIFs.",
		Parameters: object(map[string]jsonschema.Definition{
			"query": stringProp("The user search query"),
		}, "query"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Query) == "" {
				return nil, errors.New("query is required")
			}
			if deps.Search == nil {
				return nil, errors.New("search is not configured")
			}
			resp, err := deps.Search.Search(ctx, search.DefaultRequest(args.Query))
			if err != nil {
				return nil, fmt.Errorf("failed to fetch search results: %w", err)
			}
			return resp, nil
		},
	}
}

func generateImageTool(deps Deps) Tool {
	return Tool{
		Name:        GenerateImage,
		Description: "Generate an image from a text prompt. Returns the URL of the generated image; show it to the user as a markdown image.",
		Parameters: object(map[string]jsonschema.Definition{
			"prompt": stringProp("A detailed description of the image"),
			"kind": {
				Type:        jsonschema.String,
				Description: "The kind of media to generate",
				Enum:        []string{media.KindImage, media.KindVideo},
			},
		}, "prompt"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args media.GenerateRequest
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if strings.TrimSpace(args.Prompt) == "" {
				return nil, errors.New("prompt is required")
			}
			if args.Kind == "" {
				args.Kind = media.KindImage
			}
			if deps.Media == nil {
				return nil, errors.New("media service is not configured")
			}
			resp, err := deps.Media.Generate(ctx, &args)
			if err != nil {
				return nil, fmt.Errorf("failed to generate image: %w", err)
			}
			return resp, nil
		},
	}
}

func generateQuoteTool(deps Deps) Tool {
	return Tool{
		Name:        GenerateQuote,
		Description: "Generate a short quote for the user." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"quote":  stringProp("The theme of the quote"),
			"author": stringProp("The tone or author style of the quote"),
			"source": stringProp("The length or source of the quote"),
		}),
		Execute: selfCall(deps, "generate quote", func(ctx context.Context, self SelfAPI, raw json.RawMessage) (json.RawMessage, error) {
			return self.GenerateQuote(ctx, raw)
		}),
	}
}

func generateTopicsTool(deps Deps) Tool {
	return Tool{
		Name:        GenerateTopics,
		Description: "Generate a list of course topics for a learning goal and audience." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"goal":     stringProp("The learning goal"),
			"audience": stringProp("The target audience"),
		}, "goal"),
		Execute: selfCall(deps, "generate topics", func(ctx context.Context, self SelfAPI, raw json.RawMessage) (json.RawMessage, error) {
			return self.GenerateTopics(ctx, raw)
		}),
	}
}

func generateCourseOutlineTool(deps Deps) Tool {
	return Tool{
		Name:        GenerateCourseOutline,
		Description: "Generate a structured course outline with chapters and sections." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"goal":     stringProp("The learning goal"),
			"audience": stringProp("The target audience"),
			"topics":   stringListProp("Topics the course must cover"),
		}, "goal"),
		Execute: selfCall(deps, "generate course outline", func(ctx context.Context, self SelfAPI, raw json.RawMessage) (json.RawMessage, error) {
			return self.GenerateCourseOutline(ctx, raw)
		}),
	}
}

func analyzeImageTool(deps Deps) Tool {
	return Tool{
		Name:        AnalyzeImage,
		Description: "Describe the contents of an image given its URL." + useInAnswer,
		Parameters: object(map[string]jsonschema.Definition{
			"imageUrl": stringProp("The URL of the image"),
			"prompt":   stringProp("What to look for in the image"),
		}, "imageUrl"),
		Execute: selfCall(deps, "analyze image", func(ctx context.Context, self SelfAPI, raw json.RawMessage) (json.RawMessage, error) {
			var args struct {
				ImageURL string `json:"imageUrl"`
				Prompt   string `json:"prompt"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return self.ImageVision(ctx, args.ImageURL, args.Prompt)
		}),
	}
}

func saveCourseToBlobTool(deps Deps) Tool {
	return Tool{
		Name:        SaveCourseToBlob,
		Description: "Save a generated course so the user can open it later. Returns the id and URL of the saved course.",
		Parameters: object(map[string]jsonschema.Definition{
			"title":   stringProp("The course title"),
			"content": {Type: jsonschema.Object, Description: "The course outline or content"},
		}, "title", "content"),
		Execute: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Title   string         `json:"title"`
				Content map[string]any `json:"content"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Title == "" || args.Content == nil {
				return nil, errors.New("title and content are required")
			}
			if deps.Self == nil {
				return nil, errors.New("course storage is not configured")
			}
			resp, err := deps.Self.SaveCourse(ctx, args.Title, args.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to save course: %w", err)
			}
			return map[string]any{
				"success": true,
				"id":      resp.ID,
				"url":     deps.Self.CourseURL(resp.ID),
			}, nil
		},
	}
}

// selfCall wraps a call to one of the server's own endpoints, returning its
// JSON body as the tool result.
func selfCall(deps Deps, action string, call func(ctx context.Context, self SelfAPI, raw json.RawMessage) (json.RawMessage, error)) ExecutorFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		if !json.Valid(raw) {
			return nil, errors.New("invalid tool arguments")
		}
		if deps.Self == nil {
			return nil, fmt.Errorf("cannot %s: self api is not configured", action)
		}
		out, err := call(ctx, deps.Self, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to %s: %w", action, err)
		}
		return out, nil
	}
}
