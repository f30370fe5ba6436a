package domain

import "encoding/json"

// CourseOutlineRequest is the body of POST /api/generateCourseOutline.
type CourseOutlineRequest struct {
	Goal     string   `json:"goal"`
	Audience string   `json:"audience"`
	Topics   []string `json:"topics"`
}

// CourseOutlineResult is the structured output of the outline generator.
type CourseOutlineResult struct {
	CourseOutline CourseOutline `json:"courseOutline"`
}

type CourseOutline struct {
	Title       string           `json:"title" description:"The title of the course"`
	Description string           `json:"description" description:"The description of the course"`
	Goal        string           `json:"goal" description:"The goal of the course"`
	Audience    string           `json:"audience" description:"The audience of the course"`
	Topics      []string         `json:"topics" description:"The topics of the course"`
	Chapters    []OutlineChapter `json:"chapters" description:"The chapters of the course"`
}

type OutlineChapter struct {
	Title    string           `json:"title" description:"The title of the chapter"`
	Sections []OutlineSection `json:"sections" description:"The sections of the chapter"`
}

type OutlineSection struct {
	Title       string `json:"title" description:"The title of the section"`
	Description string `json:"description" description:"The description of what the section should contain"`
}

// TopicsRequest is the body of POST /api/generateTopics.
type TopicsRequest struct {
	Goal     string `json:"goal"`
	Audience string `json:"audience"`
}

// TopicsResult is the structured output of the topic generator.
type TopicsResult struct {
	Goal      string       `json:"goal" description:"The goal from the user"`
	Audience  string       `json:"audience" description:"The audience of the course"`
	Topics    []TopicEntry `json:"topics" description:"Array of topics"`
	Reasoning string       `json:"reasoning" description:"Your overall reasoning for the topic selection"`
}

type TopicEntry struct {
	Topic     string `json:"topic" description:"The topic name"`
	Reasoning string `json:"reasoning" description:"Your reasoning for this topic"`
}

// QuoteRequest is the body of POST /api/generateQuote.
type QuoteRequest struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Source string `json:"source"`
}

// QuoteResult is the structured output of the quote generator.
type QuoteResult struct {
	Quote Quote `json:"quote"`
}

type Quote struct {
	Quote  string `json:"quote" description:"The quote"`
	Author string `json:"author" description:"The author of the quote"`
	Source string `json:"source" description:"What did you base this on?"`
}

// CourseContentRequest is the body of POST /api/generateCourseContent.
// CourseOutline may be a string or an object.
type CourseContentRequest struct {
	CourseOutline json.RawMessage `json:"courseOutline"`
}

// CourseContentResult is the structured output of the content generator.
type CourseContentResult struct {
	CourseContent CourseContent `json:"courseContent"`
}

type CourseContent struct {
	Chapters []OutlineChapter `json:"chapters" description:"The chapters of the course"`
}

// ImageVisionRequest is the body of POST /api/imageVision.
type ImageVisionRequest struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// ImageVisionResult is the structured output of the image describer.
type ImageVisionResult struct {
	ImageVision []ImageDescription `json:"imageVision"`
}

type ImageDescription struct {
	Description string          `json:"description" description:"Detailed description of the image"`
	Objects     []string        `json:"objects" description:"List of main objects detected in the image"`
	Text        string          `json:"text" description:"Text detected in the image"`
	Scene       string          `json:"scene" description:"Overall scene description"`
	Attributes  ImageAttributes `json:"attributes" description:"Visual attributes of the image"`
}

type ImageAttributes struct {
	Colors      []string `json:"colors" description:"Dominant colors in the image"`
	Lighting    string   `json:"lighting" description:"Lighting conditions"`
	Composition string   `json:"composition" description:"Image composition description"`
}

// ReviewRequest is the body of POST /api/review.
type ReviewRequest struct {
	Recipe      string   `json:"recipe"`
	Ingredients []string `json:"ingredients"`
}

// ReviewResult is the response of POST /api/review.
type ReviewResult struct {
	Review string `json:"review"`
}

// ExtractRequest is the body of POST /api/extract.
type ExtractRequest struct {
	URL string `json:"url"`
}

// ExtractedDocument is the text content of a PDF.
type ExtractedDocument struct {
	Pages []ExtractedPage `json:"pages"`
	Text  string          `json:"text"`
}

type ExtractedPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// UploadResult is the response of POST /api/upload.
type UploadResult struct {
	ImageURL    string `json:"imageUrl"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}
