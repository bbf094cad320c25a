package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/dailyerosion/depbackend/internal/core/domain"
	"github.com/dailyerosion/depbackend/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	climateMatchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClimateFile",
		Fields: graphql.Fields{
			"filepath":         &graphql.Field{Type: graphql.String},
			"distance_degrees": &graphql.Field{Type: graphql.Float},
			"distance_km":      &graphql.Field{Type: graphql.Float},
			"location":         &graphql.Field{Type: geoPointType},
			"locator":          &graphql.Field{Type: graphql.String},
		},
	})

	huc12Type := graphql.NewObject(graphql.ObjectConfig{
		Name: "HUC12",
		Fields: graphql.Fields{
			"huc_12": &graphql.Field{Type: graphql.String},
			"name":   &graphql.Field{Type: graphql.String},
		},
	})

	timeDomainType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TimeDomain",
		Fields: graphql.Fields{
			"server_time": &graphql.Field{Type: graphql.String},
			"first_date":  &graphql.Field{Type: graphql.String},
			"last_date":   &graphql.Field{Type: graphql.String},
			"scenario":    &graphql.Field{Type: graphql.Int},
		},
	})

	eventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HUC12Event",
		Fields: graphql.Fields{
			"date":         &graphql.Field{Type: graphql.String},
			"qc_precip":    &graphql.Field{Type: graphql.Float},
			"avg_loss":     &graphql.Field{Type: graphql.Float},
			"avg_delivery": &graphql.Field{Type: graphql.Float},
			"avg_runoff":   &graphql.Field{Type: graphql.Float},
		},
	})

	detailsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HUC12Details",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"qc_precip":    &graphql.Field{Type: graphql.Float},
			"avg_runoff":   &graphql.Field{Type: graphql.Float},
			"avg_loss":     &graphql.Field{Type: graphql.Float},
			"avg_delivery": &graphql.Field{Type: graphql.Float},
			"punit":        &graphql.Field{Type: graphql.String},
			"lunit":        &graphql.Field{Type: graphql.String},
			"top10":        &graphql.Field{Type: graphql.NewList(eventType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nearestClimateFile": &graphql.Field{
				Type:        climateMatchType,
				Description: "Climate file serving a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Climate.Nearest(p.Context, pt)
				},
			},
			"searchHuc12": &graphql.Field{
				Type:        graphql.NewList(huc12Type),
				Description: "Search HUC12s by name or identifier prefix",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.HUC12.Search(p.Context, p.Args["query"].(string))
				},
			},
			"huc12Details": &graphql.Field{
				Type:        detailsType,
				Description: "Period totals and top events of a HUC12",
				Args: graphql.FieldConfigArgument{
					"huc12":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date2":    &graphql.ArgumentConfig{Type: graphql.String},
					"scenario": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"metric":   &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					date, err := time.Parse(isoDate, p.Args["date"].(string))
					if err != nil {
						return nil, err
					}
					req := usecases.DetailsRequest{
						HUC12:    p.Args["huc12"].(string),
						Date:     date,
						Scenario: p.Args["scenario"].(int),
						Metric:   p.Args["metric"].(bool),
					}
					if s, ok := p.Args["date2"].(string); ok && s != "" {
						d2, err := time.Parse(isoDate, s)
						if err != nil {
							return nil, err
						}
						req.Date2 = &d2
					}
					return deps.HUC12.Details(p.Context, req)
				},
			},
			"timeDomain": &graphql.Field{
				Type:        timeDomainType,
				Description: "Dates a scenario has output for",
				Args: graphql.FieldConfigArgument{
					"scenario": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Meta.TimeDomain(p.Context, p.Args["scenario"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
