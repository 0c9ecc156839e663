package homedesigns

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
)

// PayloadParams captures everything besides the image that goes into a
// submission. Exactly one of RoomType, HouseAngle or GardenType is required,
// selected by DesignType.
type PayloadParams struct {
	DesignType  DesignType
	DesignStyle string
	OutputCount int

	RoomType   string
	HouseAngle string
	GardenType string

	Prompt            string
	CustomInstruction string
	KeepStructure     *bool

	// FileName names the image part in the multipart body.
	FileName string
}

// Payload is a fully encoded multipart form ready for submission.
type Payload struct {
	body        []byte
	contentType string
}

// Body returns the encoded form bytes.
func (p *Payload) Body() []byte { return p.body }

// ContentType returns the multipart content type including the boundary.
func (p *Payload) ContentType() string { return p.contentType }

// BuildPayload assembles the provider's multipart form from params and the
// source image bytes. A missing conditionally-required field fails with
// MissingFieldError before anything touches the network.
func BuildPayload(params PayloadParams, image []byte) (*Payload, error) {
	if !KnownDesignType(params.DesignType) {
		return nil, fmt.Errorf("homedesigns: unsupported design type %q", params.DesignType)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("homedesigns: image bytes are required")
	}

	field := conditionalField[params.DesignType]
	value := ""
	switch field {
	case "room_type":
		value = strings.TrimSpace(params.RoomType)
	case "house_angle":
		value = strings.TrimSpace(params.HouseAngle)
	case "garden_type":
		value = strings.TrimSpace(params.GardenType)
	}
	if value == "" {
		return nil, &MissingFieldError{Field: field}
	}

	count := params.OutputCount
	if count <= 0 {
		count = 1
	}
	fileName := strings.TrimSpace(params.FileName)
	if fileName == "" {
		fileName = "source.png"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", fileName)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("homedesigns: write image part: %w", err)
	}

	fields := map[string]string{
		"design_type":  string(params.DesignType),
		"no_design":    strconv.Itoa(count),
		"design_style": strings.TrimSpace(params.DesignStyle),
		field:          value,
	}
	if prompt := strings.TrimSpace(params.Prompt); prompt != "" {
		fields["prompt"] = prompt
	}
	if instruction := strings.TrimSpace(params.CustomInstruction); instruction != "" {
		fields["custom_instruction"] = instruction
	}
	if params.KeepStructure != nil {
		fields["keep_structural_element"] = strconv.FormatBool(*params.KeepStructure)
	}
	for name, v := range fields {
		if err := w.WriteField(name, v); err != nil {
			return nil, fmt.Errorf("homedesigns: write field %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("homedesigns: finalize form: %w", err)
	}
	return &Payload{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}
