package handler

import (
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIHandler serves the API description at /openapi.json.
//
// The document is built once, when the handler is created, and is the
// same for every request.
type OpenAPIHandler struct {
	doc    *openapi3.T
	logger *slog.Logger
}

// NewOpenAPIHandler builds the document for the given API version string.
func NewOpenAPIHandler(version string, logger *slog.Logger) *OpenAPIHandler {
	return &OpenAPIHandler{doc: BuildOpenAPI(version), logger: logger}
}

func (h *OpenAPIHandler) HandleSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.doc)
}

// BuildOpenAPI describes the /users API as an OpenAPI 3 document.
func BuildOpenAPI(version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "User Service",
			Description: "Create, list, fetch, replace and delete user records.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{
		"User":                userSchema(true),
		"UserInput":           userSchema(false),
		"HTTPError":           httpErrorSchema(),
		"ValidationError":     validationErrorSchema(),
		"HTTPValidationError": httpValidationErrorSchema(),
	}
	doc.Components = &components

	userRef := openapi3.NewSchemaRef("#/components/schemas/User", nil)
	inputRef := openapi3.NewSchemaRef("#/components/schemas/UserInput", nil)
	userList := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: userRef,
	}}

	idParam := openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter(UserIDParam).
			WithSchema(openapi3.NewInt64Schema())},
	}

	doc.Paths.Set("/test", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Summary:     "Hello",
			OperationID: "hello",
			Responses: responses("200", "Greeting", &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type: &openapi3.Types{"object"},
				Properties: openapi3.Schemas{
					"message": openapi3.NewStringSchema().NewRef(),
				},
			}}, false, false),
		},
	})

	doc.Paths.Set("/users/", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Create user",
			OperationID: "create_user",
			RequestBody: jsonBody(inputRef),
			Responses:   responses("200", "The created user", userRef, false, true),
		},
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "List users",
			OperationID: "list_users",
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("skip").
					WithDescription("Number of users to skip.").
					WithSchema(openapi3.NewIntegerSchema().WithMin(0).WithDefault(0))},
				&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit").
					WithDescription("Maximum number of users to return.").
					WithSchema(openapi3.NewIntegerSchema().WithMin(0).WithDefault(10))},
			},
			Responses: responses("200", "A page of users in id order", userList, false, true),
		},
	})

	doc.Paths.Set("/users/{"+UserIDParam+"}", &openapi3.PathItem{
		Parameters: idParam,
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Get user",
			OperationID: "get_user",
			Responses:   responses("200", "The user", userRef, true, true),
		},
		Put: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Replace user",
			Description: "Overwrites every field. Omitted optional fields are reset to null.",
			OperationID: "replace_user",
			RequestBody: jsonBody(inputRef),
			Responses:   responses("200", "The user as stored", userRef, true, true),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "Delete user",
			OperationID: "delete_user",
			Responses:   responses("200", "The user as it was before deletion", userRef, true, true),
		},
	})

	return doc
}

func userSchema(withID bool) *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"role":       openapi3.NewStringSchema().NewRef(),
		"first_name": openapi3.NewStringSchema().NewRef(),
		"last_name":  openapi3.NewStringSchema().NewRef(),
		"email":      openapi3.NewStringSchema().NewRef(),
		"password":   openapi3.NewStringSchema().NewRef(),
		"age":        openapi3.NewIntegerSchema().WithNullable().NewRef(),
	}
	s.Required = []string{"role", "first_name", "last_name", "email", "password"}

	if withID {
		s.Properties["id"] = openapi3.NewInt64Schema().NewRef()
		s.Required = append([]string{"id"}, s.Required...)
	} else {
		id := openapi3.NewInt64Schema().WithNullable()
		id.Description = "Ignored. The server assigns ids."
		s.Properties["id"] = id.NewRef()
	}

	return s.NewRef()
}

func httpErrorSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{"detail": openapi3.NewStringSchema().NewRef()}
	s.Required = []string{"detail"}
	return s.NewRef()
}

func validationErrorSchema() *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"loc":  openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()).NewRef(),
		"msg":  openapi3.NewStringSchema().NewRef(),
		"type": openapi3.NewStringSchema().NewRef(),
	}
	s.Required = []string{"loc", "msg", "type"}
	return s.NewRef()
}

func httpValidationErrorSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type: &openapi3.Types{"object"},
		Properties: openapi3.Schemas{
			"detail": &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: openapi3.NewSchemaRef("#/components/schemas/ValidationError", nil),
			}},
		},
	}}
}

func jsonBody(schema *openapi3.SchemaRef) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithContent(openapi3.NewContentWithJSONSchemaRef(schema))}
}

// responses builds the response set for one operation: the success
// response plus 404 and 422 where the operation can produce them.
func responses(status, description string, schema *openapi3.SchemaRef, notFound, invalid bool) *openapi3.Responses {
	rs := openapi3.NewResponses()

	rs.Set(status, &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription(description).
		WithContent(openapi3.NewContentWithJSONSchemaRef(schema))})

	if notFound {
		rs.Set("404", &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("No user with this id").
			WithContent(openapi3.NewContentWithJSONSchemaRef(
				openapi3.NewSchemaRef("#/components/schemas/HTTPError", nil)))})
	}
	if invalid {
		rs.Set("422", &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Validation Error").
			WithContent(openapi3.NewContentWithJSONSchemaRef(
				openapi3.NewSchemaRef("#/components/schemas/HTTPValidationError", nil)))})
	}

	return rs
}
