// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the whole process. It is built
// lazily by GetValidator, caches struct reflection data and is safe for
// concurrent use. Chart definitions, configuration and API query parameters
// are all checked through ValidateStruct.
//
// # Quick Start
//
//	type SeriesQuery struct {
//	    ChartID string `validate:"required,chartid"`
//	    Limit   int    `validate:"gte=0,lte=1000"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Custom Tags
//
//	chartid    -> lowercase slug: "ai-salary-premium"
//	identifier -> warehouse object name: "weekly_job_market_trends", "analytics.jobs"
//
// Both accept the empty string, so pair them with required or
// required_without when a value is mandatory.
//
// # Error Types
//
// ValidationError describes one failed field (Field, Tag, Param, Value and a
// human-readable Error). RequestValidationError aggregates them and converts
// to the API's VALIDATION_ERROR body with ToAPIError:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "ID is required",
//	    "details": {"field": "ID", "tag": "required", "value": ""}
//	}
//
// Several failures are joined into one message and listed under
// details.fields.
package validation
