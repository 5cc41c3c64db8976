package ginserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	listingapp "quickhost/internal/app/handlers/listings"
	"quickhost/internal/app/images"
	"quickhost/internal/app/queries"
	domainlistings "quickhost/internal/domain/listings"
	"quickhost/internal/domain/shared/apperr"
)

// Multipart listing payloads carry the JSON document in this form field and
// the image files under imagesField.
const (
	dataField   = "data"
	imagesField = "internal_images"
	coverField  = "internal_cover_image"
)

var errPriceRequired = errors.New("price_per_night is required")

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type listingRequest struct {
	Title                *string          `json:"title"`
	Description          *string          `json:"description"`
	Category             *string          `json:"category"`
	SpaceType            *string          `json:"space_type"`
	Address              *string          `json:"address"`
	City                 *string          `json:"city"`
	Neighborhood         *string          `json:"neighborhood"`
	PostalCode           *string          `json:"postal_code"`
	UF                   *string          `json:"uf"`
	RoomCount            *int             `json:"room_count"`
	BedCount             *int             `json:"bed_count"`
	BathroomCount        *int             `json:"bathroom_count"`
	GuestCapacity        *int             `json:"guest_capacity"`
	Amenities            amenitiesRequest `json:"amenities"`
	Discount             *bool            `json:"discount"`
	ConsecutiveDaysLimit *int             `json:"consecutive_days_limit"`
	PricePerNight        *amount          `json:"price_per_night"`
	CleaningFee          *amount          `json:"cleaning_fee"`
	IsActive             *bool            `json:"is_active"`
	Images               *[]string        `json:"internal_images"`
	CoverImage           *string          `json:"internal_cover_image"`
}

type amenitiesRequest struct {
	WiFi             *bool `json:"wifi"`
	TV               *bool `json:"tv"`
	Kitchen          *bool `json:"kitchen"`
	WashingMachine   *bool `json:"washing_machine"`
	ParkingIncluded  *bool `json:"parking_included"`
	AirConditioning  *bool `json:"air_conditioning"`
	Pool             *bool `json:"pool"`
	Jacuzzi          *bool `json:"jacuzzi"`
	Grill            *bool `json:"grill"`
	PrivateGym       *bool `json:"private_gym"`
	BeachAccess      *bool `json:"beach_access"`
	SmokeDetector    *bool `json:"smoke_detector"`
	FireExtinguisher *bool `json:"fire_extinguisher"`
	FirstAidKit      *bool `json:"first_aid_kit"`
	OutdoorCamera    *bool `json:"outdoor_camera"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h ListingHandler) List(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	limit := parseIntWithDefault(c.Query("limit"), 20)
	page := parseIntWithDefault(c.Query("page"), 1)
	offset := parseInt(c.Query("offset"))
	if offset == 0 && page > 1 {
		offset = (page - 1) * limit
	}
	query := listingapp.ListListingsQuery{
		CallerID:        callerID(c),
		OwnerID:         strings.TrimSpace(c.Query("owner")),
		City:            strings.TrimSpace(c.Query("city")),
		Category:        strings.TrimSpace(c.Query("category")),
		Sort:            strings.TrimSpace(c.Query("sort")),
		IncludeInactive: parseBool(c.Query("include_inactive")),
		Limit:           limit,
		Offset:          offset,
	}
	result, err := queries.Ask[listingapp.ListListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	query := listingapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Create(c *gin.Context) {
	owner, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	req, uploads, _, err := readListingRequest(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	fields, err := req.createFields()
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cover := ""
	if req.CoverImage != nil {
		cover = *req.CoverImage
	}
	cmd := listingapp.CreateListingCommand{OwnerID: owner, Fields: fields, Images: uploads, CoverIndex: cover}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	req, uploads, filesSent, err := readListingRequest(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	fields, err := req.updateFields()
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cmd := listingapp.UpdateListingCommand{
		CallerID:       caller,
		ListingID:      c.Param("id"),
		Fields:         fields,
		ImagesSupplied: req.Images != nil || filesSent,
		CoverIndex:     req.CoverImage,
	}
	if req.Images != nil {
		for _, ref := range *req.Images {
			cmd.Images = append(cmd.Images, images.ImageInput{Ref: ref})
		}
	}
	for i := range uploads {
		cmd.Images = append(cmd.Images, images.ImageInput{Upload: &uploads[i]})
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) SetActive(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.IsActive == nil {
		respondWithError(c, h.Logger, apperr.Field("is_active", errors.New("is_active is required")))
		return
	}
	cmd := listingapp.SetListingActiveCommand{CallerID: caller, ListingID: c.Param("id"), Active: *req.IsActive}
	result, err := commands.Dispatch[listingapp.SetListingActiveCommand, dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	cmd := listingapp.DeleteListingCommand{CallerID: caller, ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.DeleteListingCommand, listingapp.DeleteListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// readListingRequest accepts either a JSON body or a multipart form whose
// data field holds the JSON document.
func readListingRequest(c *gin.Context) (listingRequest, []images.Upload, bool, error) {
	var req listingRequest
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(&req); err != nil {
			return listingRequest{}, nil, false, err
		}
		return req, nil, false, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return listingRequest{}, nil, false, err
	}
	if data := form.Value[dataField]; len(data) > 0 && strings.TrimSpace(data[0]) != "" {
		if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
			return listingRequest{}, nil, false, fmt.Errorf("invalid %s field: %w", dataField, err)
		}
	}
	if cover := form.Value[coverField]; len(cover) > 0 {
		req.CoverImage = &cover[0]
	}
	files, sent := form.File[imagesField]
	uploads := make([]images.Upload, 0, len(files))
	for _, fh := range files {
		upload, err := readUpload(fh)
		if err != nil {
			return listingRequest{}, nil, false, err
		}
		uploads = append(uploads, upload)
	}
	return req, uploads, sent, nil
}

// readUpload reads one byte past MaxImageSize so oversize files are rejected
// by validation rather than silently truncated.
func readUpload(fh *multipart.FileHeader) (images.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return images.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, images.MaxImageSize+1))
	if err != nil {
		return images.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return images.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func (r listingRequest) createFields() (domainlistings.CreateListingFields, error) {
	var errs apperr.Collector
	fields := domainlistings.CreateListingFields{
		Title:       deref(r.Title),
		Description: deref(r.Description),
		Category:    domainlistings.Category(deref(r.Category)),
		SpaceType:   domainlistings.SpaceType(deref(r.SpaceType)),
		Address: domainlistings.Address{
			Street:       deref(r.Address),
			City:         deref(r.City),
			Neighborhood: deref(r.Neighborhood),
			PostalCode:   deref(r.PostalCode),
			UF:           deref(r.UF),
		},
		Capacity: domainlistings.Capacity{
			Rooms:     deref(r.RoomCount),
			Beds:      deref(r.BedCount),
			Bathrooms: deref(r.BathroomCount),
			Guests:    deref(r.GuestCapacity),
		},
		Amenities:            domainlistings.Amenities{}.Apply(domainlistings.AmenitiesPatch(r.Amenities)),
		Discount:             deref(r.Discount),
		ConsecutiveDaysLimit: r.ConsecutiveDaysLimit,
	}
	if r.PricePerNight == nil {
		errs.Add("price_per_night", errPriceRequired)
	} else if rate, err := r.PricePerNight.parse(); err != nil {
		errs.Add("price_per_night", err)
	} else {
		fields.NightlyRate = *rate
	}
	if fee, err := r.CleaningFee.parse(); err != nil {
		errs.Add("cleaning_fee", err)
	} else if fee != nil {
		fields.CleaningFee = *fee
	}
	return fields, errs.Err()
}

func (r listingRequest) updateFields() (domainlistings.UpdateListingFields, error) {
	fields := domainlistings.UpdateListingFields{
		Title:       r.Title,
		Description: r.Description,
		Address: domainlistings.AddressPatch{
			Street:       r.Address,
			City:         r.City,
			Neighborhood: r.Neighborhood,
			PostalCode:   r.PostalCode,
			UF:           r.UF,
		},
		Capacity: domainlistings.CapacityPatch{
			Rooms:     r.RoomCount,
			Beds:      r.BedCount,
			Bathrooms: r.BathroomCount,
			Guests:    r.GuestCapacity,
		},
		Amenities:            domainlistings.AmenitiesPatch(r.Amenities),
		Discount:             r.Discount,
		ConsecutiveDaysLimit: r.ConsecutiveDaysLimit,
		Active:               r.IsActive,
	}
	if r.Category != nil {
		category := domainlistings.Category(*r.Category)
		fields.Category = &category
	}
	if r.SpaceType != nil {
		space := domainlistings.SpaceType(*r.SpaceType)
		fields.SpaceType = &space
	}
	var errs apperr.Collector
	rate, err := r.PricePerNight.parse()
	errs.Add("price_per_night", err)
	fee, err := r.CleaningFee.parse()
	errs.Add("cleaning_fee", err)
	if err := errs.Err(); err != nil {
		return domainlistings.UpdateListingFields{}, err
	}
	fields.NightlyRate = rate
	fields.CleaningFee = fee
	return fields, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

var _ ListingHTTP = ListingHandler{}
