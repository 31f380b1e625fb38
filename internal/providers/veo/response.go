package veo

import (
	"encoding/json"

	"virezo-server/internal/domain"
)

type videoRef struct {
	GCSURI string `json:"gcsUri"`
	URI    string `json:"uri"`
}

type generatedVideo struct {
	Video videoRef `json:"video"`
}

// The success payload arrives in one of two shapes depending on the model
// revision: generatedVideos[].video.gcsUri or generatedSamples[].video.uri.
type operationResponse struct {
	GeneratedVideos  []generatedVideo `json:"generatedVideos"`
	GeneratedSamples []generatedVideo `json:"generatedSamples"`
}

// ExtractVideoURI pulls the produced asset's storage location out of a done
// operation's response payload, trying both known shapes.
func ExtractVideoURI(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", &domain.ResponseFormatError{Detail: "empty response payload"}
	}
	var resp operationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.ResponseFormatError{Detail: err.Error()}
	}
	if len(resp.GeneratedVideos) > 0 && resp.GeneratedVideos[0].Video.GCSURI != "" {
		return resp.GeneratedVideos[0].Video.GCSURI, nil
	}
	if len(resp.GeneratedSamples) > 0 && resp.GeneratedSamples[0].Video.URI != "" {
		return resp.GeneratedSamples[0].Video.URI, nil
	}
	return "", &domain.ResponseFormatError{Detail: "no video uri in generatedVideos or generatedSamples"}
}
