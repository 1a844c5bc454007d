// Package hclconfig is the HCL-specific implementation of the config.Loader
// interface. Settings files carry a single `survey` block:
//
//	survey {
//	  id           = "SV_abc123def456ghi"
//	  name         = "Capstone Client Evaluation"
//	  type         = "client-eval"
//	  exclude_self = true
//
//	  scale {
//	    min       = 1
//	    max       = 10
//	    min_label = "Not at all satisfied"
//	    max_label = "Completely satisfied"
//	  }
//	}
//
// Every attribute is optional; unset attributes keep their defaults. When the
// configured path is a directory, all .hcl files under it are applied in
// discovery order, later files overriding earlier ones.
package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/Kedar-V/Qualitrics-Automation/internal/config"
	"github.com/Kedar-V/Qualitrics-Automation/internal/ctxlog"
	"github.com/Kedar-V/Qualitrics-Automation/internal/fsutil"
)

// Loader loads compiler settings from HCL files.
type Loader struct{}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level blocks of a settings file.
type fileRoot struct {
	Survey *surveyBlock `hcl:"survey,block"`
	Remain hcl.Body     `hcl:",remain"`
}

// surveyBlock mirrors the `survey` block. Scalar attributes are decoded by
// gohcl; the nested scale block keeps its raw body so attribute values can be
// converted through cty with per-attribute diagnostics.
type surveyBlock struct {
	ID          *string     `hcl:"id,optional"`
	Name        *string     `hcl:"name,optional"`
	Type        *string     `hcl:"type,optional"`
	ExcludeSelf *bool       `hcl:"exclude_self,optional"`
	Scale       *scaleBlock `hcl:"scale,block"`
}

type scaleBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	settings := config.Default()

	if path == "" {
		logger.Debug("No settings path provided, using defaults.")
		return settings, nil
	}

	files, err := fsutil.Discover(".hcl", path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered settings files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode settings file %s: %w", file, diags)
		}
		if root.Survey == nil {
			continue
		}
		if err := applySurveyBlock(settings, root.Survey); err != nil {
			return nil, fmt.Errorf("invalid settings in %s: %w", file, err)
		}
	}

	logger.Debug("Settings loading complete.",
		"survey_id", settings.SurveyID,
		"survey_type", string(settings.Type),
		"scale_min", settings.Scale.Min,
		"scale_max", settings.Scale.Max,
	)
	return settings, nil
}

// applySurveyBlock merges one decoded survey block over the current settings.
func applySurveyBlock(settings *config.Settings, block *surveyBlock) error {
	if block.ID != nil {
		settings.SurveyID = *block.ID
	}
	if block.Name != nil {
		settings.SurveyName = *block.Name
	}
	if block.Type != nil {
		surveyType, err := config.ParseSurveyType(*block.Type)
		if err != nil {
			return err
		}
		settings.Type = surveyType
	}
	if block.ExcludeSelf != nil {
		settings.ExcludeSelf = *block.ExcludeSelf
	}
	if block.Scale != nil {
		if err := applyScaleBody(&settings.Scale, block.Scale.Body); err != nil {
			return err
		}
	}
	if settings.Scale.Min >= settings.Scale.Max {
		return fmt.Errorf("scale min (%d) must be below scale max (%d)", settings.Scale.Min, settings.Scale.Max)
	}
	return nil
}

// applyScaleBody converts the scale block's attributes from their cty values
// into the native settings fields.
func applyScaleBody(scale *config.Scale, body hcl.Body) error {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}

	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return diags
		}

		switch name {
		case "min":
			if err := ctyInt(value, &scale.Min); err != nil {
				return fmt.Errorf("scale.min: %w", err)
			}
		case "max":
			if err := ctyInt(value, &scale.Max); err != nil {
				return fmt.Errorf("scale.max: %w", err)
			}
		case "min_label":
			if err := ctyString(value, &scale.MinLabel); err != nil {
				return fmt.Errorf("scale.min_label: %w", err)
			}
		case "max_label":
			if err := ctyString(value, &scale.MaxLabel); err != nil {
				return fmt.Errorf("scale.max_label: %w", err)
			}
		default:
			return fmt.Errorf("unsupported scale attribute %q", name)
		}
	}
	return nil
}

func ctyInt(value cty.Value, target *int) error {
	converted, err := convert.Convert(value, cty.Number)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(converted, target)
}

func ctyString(value cty.Value, target *string) error {
	converted, err := convert.Convert(value, cty.String)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(converted, target)
}
