package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/navroute/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

const maxRequestBodyBytes = 1 << 20

type routingAPI struct {
	routingService RoutingService
	timeout        time.Duration
	log            *zap.Logger

	validate *validator.Validate
	trans    ut.Translator
}

func New(routingService RoutingService, timeout time.Duration, log *zap.Logger) *routingAPI {
	validate, trans := newValidator()
	return &routingAPI{
		routingService: routingService,
		timeout:        timeout,
		log:            log,
		validate:       validate,
		trans:          trans,
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return validate, trans
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.POST("/route", api.route)
	group.GET("/computeRoutes", api.computeRoutes)
}

// route godoc
//
//	@Summary		shortest route between two coordinates
//	@Tags			routing
//	@Accept			json
//	@Produce		json
//	@Param			body	body	routeRequest	true	"start and end coordinates"
//	@Router			/route [post]
func (api *routingAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request routeRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		api.BadRequestResponse(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	api.handleRoute(w, r, request)
}

// computeRoutes godoc
//
//	@Summary		shortest route between two coordinates
//	@Tags			routing
//	@Produce		json
//	@Param			start_lat	query	number	true	"start latitude"
//	@Param			start_lon	query	number	true	"start longitude"
//	@Param			end_lat		query	number	true	"end latitude"
//	@Param			end_lon		query	number	true	"end longitude"
//	@Router			/computeRoutes [get]
func (api *routingAPI) computeRoutes(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request routeRequest
		err     error
	)

	query := r.URL.Query()

	for _, field := range []struct {
		key string
		dst **float64
	}{
		{"start_lat", &request.StartLat},
		{"start_lon", &request.StartLon},
		{"end_lat", &request.EndLat},
		{"end_lon", &request.EndLon},
	} {
		*field.dst, err = queryFloat(query, field.key)
		if err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	}

	api.handleRoute(w, r, request)
}

func (api *routingAPI) handleRoute(w http.ResponseWriter, r *http.Request, request routeRequest) {
	if err := api.validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), api.timeout)
	defer cancel()

	itinerary, err := api.routingService.Route(ctx, request.start(), request.end())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, NewRouteResponse(itinerary), headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *routingAPI) validateRequest(request routeRequest) error {
	if err := api.validate.Struct(request); err != nil {
		vv := translateError(err, api.trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		return fmt.Errorf("validation error: %v", vvString)
	}
	return nil
}

// queryFloat returns nil when key is absent so that validation reports it as required.
func queryFloat(query url.Values, key string) (*float64, error) {
	raw := query.Get(key)
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid float", key)
	}
	return &val, nil
}
