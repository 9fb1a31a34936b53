// internal/catalog/decode.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/common/validation"
	"storefront/internal/models"
)

var (
	ErrMalformedResponse = errors.New("MALFORMED_OPTIONS_RESPONSE")
	ErrInvalidProductID  = errors.New("product id is required")
)

// envelopeSchema checks the types of every section that is read. Sections may
// be missing; a present section must have the expected shape.
var envelopeSchema = validation.MustCompile("options-envelope", `{
	"type": "object",
	"definitions": {
		"optionalString": {"type": ["string", "null"]},
		"optionalInt": {"type": ["integer", "null"]},
		"option": {
			"type": "object",
			"required": ["option_id_s"],
			"properties": {
				"option_id_s": {"type": "string", "minLength": 1},
				"option_type_name_s": {"type": "string"},
				"option_value_s": {"$ref": "#/definitions/optionalString"},
				"sort_priority_i": {"$ref": "#/definitions/optionalInt"},
				"sort_priority_type_i": {"$ref": "#/definitions/optionalInt"},
				"type_id_s": {"$ref": "#/definitions/optionalString"}
			}
		}
	},
	"properties": {
		"options_detail": {
			"type": "object",
			"properties": {
				"aggregations": {
					"type": "object",
					"properties": {
						"by_type": {
							"type": "object",
							"properties": {
								"buckets": {
									"type": "array",
									"items": {
										"type": "object",
										"properties": {
											"key": {"type": "string"},
											"doc_count": {"type": "integer"},
											"options": {
												"type": "object",
												"properties": {
													"hits": {
														"type": "object",
														"properties": {
															"hits": {
																"type": "array",
																"items": {
																	"type": "object",
																	"required": ["_source"],
																	"properties": {
																		"status": {"$ref": "#/definitions/optionalString"},
																		"_source": {"$ref": "#/definitions/option"}
																	}
																}
															}
														}
													}
												}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		},
		"sku_response": {
			"type": "object",
			"properties": {
				"hits": {
					"type": "object",
					"properties": {
						"hits": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {
									"_source": {
										"type": "object",
										"properties": {"id": {"type": "string"}}
									}
								}
							}
						}
					}
				}
			}
		},
		"product_response": {
			"type": "object",
			"properties": {
				"hits": {
					"type": "object",
					"properties": {
						"hits": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {
									"_source": {
										"type": "object",
										"properties": {
											"product_name_s": {"$ref": "#/definitions/optionalString"},
											"product_image_s": {"$ref": "#/definitions/optionalString"},
											"is_bundle_product_i": {"$ref": "#/definitions/optionalInt"},
											"option_id_ss": {"type": ["array", "null"], "items": {"type": "string"}},
											"option_override_sequence_ss": {"type": ["array", "null"], "items": {"type": "string"}}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`)

// Decode validates an options envelope and reduces it to a CatalogResult.
//
// Options whose status is "unavailable" are dropped; the rest keep bucket
// order, then within-bucket order. The SKU is set only when the SKU section
// holds between one and skuMatchLimit candidates.
func Decode(body []byte, skuMatchLimit int) (*models.CatalogResult, error) {
	if result := envelopeSchema.Validate(body); !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, result.Err())
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := env.checkOptions(); err != nil {
		return nil, err
	}
	return env.Result(skuMatchLimit), nil
}

// checkOptions requires a type name on every option that survives filtering.
func (e *Envelope) checkOptions() error {
	if e.OptionsDetail == nil {
		return nil
	}
	for _, bucket := range e.OptionsDetail.Aggregations.ByType.Buckets {
		for _, hit := range bucket.Options.Hits.Hits {
			if hit.Status != StatusUnavailable && hit.Source.OptionTypeName == "" {
				return fmt.Errorf("%w: option %s has no type", ErrMalformedResponse, hit.Source.OptionID)
			}
		}
	}
	return nil
}

// Result flattens the envelope.
func (e *Envelope) Result(skuMatchLimit int) *models.CatalogResult {
	result := &models.CatalogResult{Options: []models.Option{}}

	if e.OptionsDetail != nil {
		for _, bucket := range e.OptionsDetail.Aggregations.ByType.Buckets {
			for _, hit := range bucket.Options.Hits.Hits {
				if hit.Status == StatusUnavailable {
					continue
				}
				result.Options = append(result.Options, hit.Source)
			}
		}
	}

	if e.SKUResponse != nil {
		hits := e.SKUResponse.Hits.Hits
		if len(hits) > 0 && len(hits) <= skuMatchLimit {
			result.SKU = hits[0].Source.ID
		}
	}

	if e.ProductResponse != nil && len(e.ProductResponse.Hits.Hits) > 0 {
		summary := e.ProductResponse.Hits.Hits[0].Source
		result.Summary = &summary
	}

	return result
}
