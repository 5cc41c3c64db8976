package listings_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	"quickhost/internal/app/handlers/listings"
	"quickhost/internal/app/images"
	"quickhost/internal/app/middleware"
	"quickhost/internal/app/uow"
	domainbooking "quickhost/internal/domain/booking"
	domainfavorites "quickhost/internal/domain/favorites"
	domainlistings "quickhost/internal/domain/listings"
	domainmembership "quickhost/internal/domain/membership"
	domainreviews "quickhost/internal/domain/reviews"
	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/money"
	"quickhost/internal/infra/storage/memory"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type flakyBlobs struct {
	*memory.BlobStore
	failSave   func(path string) bool
	failDelete bool
}

func (f *flakyBlobs) Save(ctx context.Context, path string, content []byte) error {
	if f.failSave != nil && f.failSave(path) {
		return errors.New("disk full")
	}
	return f.BlobStore.Save(ctx, path, content)
}

func (f *flakyBlobs) Delete(ctx context.Context, path string) error {
	if f.failDelete {
		return errors.New("read-only filesystem")
	}
	return f.BlobStore.Delete(ctx, path)
}

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	blobs   *flakyBlobs
	images  *images.Manager
	ids     int
}

func newFixture() *fixture {
	store := memory.NewStore()
	blobs := &flakyBlobs{BlobStore: memory.NewBlobStore()}
	f := &fixture{store: store, factory: memory.Factory{Store: store}, blobs: blobs}
	names := 0
	f.images = &images.Manager{Store: blobs, NewName: func() string {
		names++
		return fmt.Sprintf("img-%02d", names)
	}}
	return f
}

func (f *fixture) newID() string {
	f.ids++
	return fmt.Sprintf("listing-%d", f.ids)
}

func (f *fixture) create() *listings.CreateListingHandler {
	return &listings.CreateListingHandler{
		UoWFactory: f.factory,
		Images:     f.images,
		Outbox:     f.store.Outbox(),
		Now:        func() time.Time { return testNow },
		NewID:      f.newID,
	}
}

func (f *fixture) update() *listings.UpdateListingHandler {
	return &listings.UpdateListingHandler{
		UoWFactory: f.factory,
		Images:     f.images,
		Outbox:     f.store.Outbox(),
		Now:        func() time.Time { return testNow.Add(time.Hour) },
	}
}

func (f *fixture) delete() *listings.DeleteListingHandler {
	return &listings.DeleteListingHandler{
		UoWFactory: f.factory,
		Images:     f.images,
		Outbox:     f.store.Outbox(),
		Now:        func() time.Time { return testNow.Add(2 * time.Hour) },
	}
}

func (f *fixture) read(t *testing.T) uow.UnitOfWork {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = unit.Rollback(context.Background()) })
	return unit
}

func fields() domainlistings.CreateListingFields {
	return domainlistings.CreateListingFields{
		Title:       "Chalé na serra",
		Category:    domainlistings.CategoryChalet,
		SpaceType:   domainlistings.SpaceFull,
		Address:     domainlistings.Address{Street: "Rua das Flores 120", City: "Gramado", Neighborhood: "Centro", PostalCode: "95670-000", UF: "RS"},
		Capacity:    domainlistings.Capacity{Rooms: 2, Beds: 3, Bathrooms: 1, Guests: 4},
		Amenities:   domainlistings.Amenities{WiFi: true, Pool: true},
		NightlyRate: money.Cents(50000),
		CleaningFee: money.Cents(8000),
	}
}

func uploads(names ...string) []images.Upload {
	out := make([]images.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, images.Upload{Filename: n, Content: []byte("bytes of " + n)})
	}
	return out
}

func TestCreateListingStoresImagesAndCover(t *testing.T) {
	f := newFixture()
	got, err := f.create().Handle(context.Background(), listings.CreateListingCommand{
		OwnerID:    "owner-1",
		Fields:     fields(),
		Images:     uploads("front.png", "room", "pool.JPG"),
		CoverIndex: "1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []string{
		"property_images/listing-1/img-01.png",
		"property_images/listing-1/img-02.jpg",
		"property_images/listing-1/img-03.jpg",
	}
	if strings.Join(got.Images, ",") != strings.Join(want, ",") {
		t.Fatalf("images %v want %v", got.Images, want)
	}
	if got.CoverImage == nil || *got.CoverImage != want[1] {
		t.Fatalf("cover %v want %s", got.CoverImage, want[1])
	}
	if got.TotalNightlyCost.Amount != "580.00" || got.EffectiveNightlyRate.Amount != "455.00" {
		t.Fatalf("unexpected totals %+v %+v", got.TotalNightlyCost, got.EffectiveNightlyRate)
	}

	unit := f.read(t)
	linked, err := unit.Memberships().Contains(context.Background(), domainmembership.UserListings, "owner-1", "listing-1")
	if err != nil || !linked {
		t.Fatalf("listing not registered with owner: %v", err)
	}
	if n := len(f.store.Outbox().Pending()); n != 1 {
		t.Fatalf("expected one listing.created event, got %d", n)
	}
}

func TestCreateListingIgnoresInvalidCoverIndex(t *testing.T) {
	for _, index := range []string{"", "7", "-1", "first"} {
		t.Run(fmt.Sprintf("index=%q", index), func(t *testing.T) {
			f := newFixture()
			got, err := f.create().Handle(context.Background(), listings.CreateListingCommand{
				OwnerID:    "owner-1",
				Fields:     fields(),
				Images:     uploads("a.png", "b.png"),
				CoverIndex: index,
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if got.CoverImage != nil {
				t.Fatalf("expected no cover, got %s", *got.CoverImage)
			}
			if len(got.Images) != 2 {
				t.Fatalf("expected 2 images, got %d", len(got.Images))
			}
		})
	}
}

func TestCreateListingSkipsFailedImageSaves(t *testing.T) {
	f := newFixture()
	f.blobs.failSave = func(path string) bool { return strings.HasSuffix(path, "img-02.png") }
	got, err := f.create().Handle(context.Background(), listings.CreateListingCommand{
		OwnerID: "owner-1",
		Fields:  fields(),
		Images:  uploads("a.png", "b.png", "c.png"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(got.Images) != 2 {
		t.Fatalf("expected the failed image to be skipped, got %v", got.Images)
	}
	for _, ref := range got.Images {
		if strings.Contains(ref, "img-02") {
			t.Fatalf("failed image must not be referenced: %v", got.Images)
		}
	}
}

func TestCreateListingRejectsInvalidFieldsAtomically(t *testing.T) {
	f := newFixture()
	bad := fields()
	bad.Capacity.Rooms = 0
	bad.Address.PostalCode = "9567"
	_, err := f.create().Handle(context.Background(), listings.CreateListingCommand{
		OwnerID: "owner-1",
		Fields:  bad,
		Images:  uploads("a.png"),
	})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	m := verr.Map()
	if _, ok := m["room_count"]; !ok {
		t.Fatalf("missing room_count in %v", m)
	}
	if _, ok := m["postal_code"]; !ok {
		t.Fatalf("missing postal_code in %v", m)
	}
	if paths := f.blobs.Paths(); len(paths) != 0 {
		t.Fatalf("no blobs expected, got %v", paths)
	}
	if _, err := f.read(t).Listings().ByID(context.Background(), "listing-1"); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("listing must not exist, got %v", err)
	}
}

func createListing(t *testing.T, f *fixture, names ...string) string {
	t.Helper()
	got, err := f.create().Handle(context.Background(), listings.CreateListingCommand{
		OwnerID:    "owner-1",
		Fields:     fields(),
		Images:     uploads(names...),
		CoverIndex: "0",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return got.ID
}

func TestUpdateListingRequiresOwner(t *testing.T) {
	f := newFixture()
	id := createListing(t, f)
	title := "Outro título"
	_, err := f.update().Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:  "intruder",
		ListingID: id,
		Fields:    domainlistings.UpdateListingFields{Title: &title},
	})
	if !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	stored, _ := f.read(t).Listings().ByID(context.Background(), domainlistings.ListingID(id))
	if stored.Title != "Chalé na serra" {
		t.Fatalf("title changed to %q", stored.Title)
	}
}

func TestUpdateListingPreservesUnsuppliedFields(t *testing.T) {
	f := newFixture()
	id := createListing(t, f)
	rate := money.Cents(100000)
	kitchen := true
	got, err := f.update().Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:  "owner-1",
		ListingID: id,
		Fields: domainlistings.UpdateListingFields{
			NightlyRate: &rate,
			Amenities:   domainlistings.AmenitiesPatch{Kitchen: &kitchen},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Amenities.WiFi || !got.Amenities.Pool || !got.Amenities.Kitchen {
		t.Fatalf("amenities not merged: %+v", got.Amenities)
	}
	if got.CleaningFee.Amount != "80.00" {
		t.Fatalf("cleaning fee lost: %+v", got.CleaningFee)
	}
	if got.TotalNightlyCost.Amount != "1080.00" || got.EffectiveNightlyRate.Amount != "850.00" {
		t.Fatalf("totals not recomputed: %+v %+v", got.TotalNightlyCost, got.EffectiveNightlyRate)
	}
}

func TestUpdateListingWithEmptyImagesPurgesEverything(t *testing.T) {
	f := newFixture()
	id := createListing(t, f, "a.png", "b.png")
	got, err := f.update().Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:       "owner-1",
		ListingID:      id,
		ImagesSupplied: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Images == nil || len(got.Images) != 0 {
		t.Fatalf("expected empty image list, got %v", got.Images)
	}
	if got.CoverImage != nil {
		t.Fatalf("cover must be cleared, got %s", *got.CoverImage)
	}
	if paths := f.blobs.Paths(); len(paths) != 0 {
		t.Fatalf("blobs left behind: %v", paths)
	}
	exists, _ := f.blobs.Exists(context.Background(), images.Folder(id))
	if exists {
		t.Fatal("listing folder still exists")
	}
}

func TestUpdateListingAppendsUploadsAndKeepsCover(t *testing.T) {
	f := newFixture()
	id := createListing(t, f, "a.png")
	upload := uploads("b.png")[0]
	got, err := f.update().Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:       "owner-1",
		ListingID:      id,
		ImagesSupplied: true,
		Images: []images.ImageInput{
			{Ref: "property_images/other/evil.png"},
			{Upload: &upload},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"property_images/listing-1/img-01.png", "property_images/listing-1/img-02.png"}
	if strings.Join(got.Images, ",") != strings.Join(want, ",") {
		t.Fatalf("images %v want %v", got.Images, want)
	}
	if got.CoverImage == nil || *got.CoverImage != want[0] {
		t.Fatalf("cover should be kept, got %v", got.CoverImage)
	}

	index := "1"
	got, err = f.update().Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:   "owner-1",
		ListingID:  id,
		CoverIndex: &index,
	})
	if err != nil {
		t.Fatalf("reassign cover: %v", err)
	}
	if got.CoverImage == nil || *got.CoverImage != want[1] {
		t.Fatalf("cover not reassigned: %v", got.CoverImage)
	}
}

func TestSetListingActive(t *testing.T) {
	f := newFixture()
	id := createListing(t, f)
	h := &listings.SetListingActiveHandler{UoWFactory: f.factory, Outbox: f.store.Outbox()}
	got, err := h.Handle(context.Background(), listings.SetListingActiveCommand{CallerID: "owner-1", ListingID: id, Active: false})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got.Active {
		t.Fatal("listing still active")
	}
	if _, err := h.Handle(context.Background(), listings.SetListingActiveCommand{CallerID: "other", ListingID: id, Active: true}); !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, err := h.Handle(context.Background(), listings.SetListingActiveCommand{CallerID: "owner-1", ListingID: "missing", Active: true}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func seedDependents(t *testing.T, f *fixture, listingID string) {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	id := domainlistings.ListingID(listingID)
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "booking-1", ListingID: id, UserID: "guest-1",
		CheckIn: testNow.AddDate(0, 0, 3), CheckOut: testNow.AddDate(0, 0, 5),
		NightlyRate: money.Cents(10000), CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID: "review-1", ListingID: id, AuthorID: "guest-1", Rating: 5,
		Comment: strings.Repeat("ótima estadia ", 10), CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	favorite, _ := domainfavorites.New("favorite-1", "guest-1", id, testNow)
	steps := []error{
		unit.Bookings().Save(ctx, booking),
		domainmembership.LinkBooking(ctx, unit.Memberships(), "guest-1", listingID, "booking-1"),
		unit.Reviews().Save(ctx, review),
		unit.Favorites().Insert(ctx, favorite),
		unit.Commit(ctx),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("seed step %d: %v", i, err)
		}
	}
}

func TestDeleteListingCascades(t *testing.T) {
	f := newFixture()
	id := createListing(t, f, "a.png", "b.png")
	seedDependents(t, f, id)

	res, err := f.delete().Handle(context.Background(), listings.DeleteListingCommand{CallerID: "owner-1", ListingID: id})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.ImagesRemoved != 2 || res.BookingsRemoved != 1 || res.ReviewsRemoved != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	ctx := context.Background()
	unit := f.read(t)
	if _, err := unit.Listings().ByID(ctx, domainlistings.ListingID(id)); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("listing still present: %v", err)
	}
	if _, err := unit.Bookings().ByID(ctx, "booking-1"); !errors.Is(err, domainbooking.ErrBookingNotFound) {
		t.Fatalf("booking still present: %v", err)
	}
	if _, err := unit.Reviews().ByID(ctx, "review-1"); !errors.Is(err, domainreviews.ErrNotFound) {
		t.Fatalf("review still present: %v", err)
	}
	if favs, _ := unit.Favorites().ListByUser(ctx, "guest-1"); len(favs) != 0 {
		t.Fatalf("favorites left: %d", len(favs))
	}
	if members, _ := unit.Memberships().Members(ctx, domainmembership.UserBookings, "guest-1"); len(members) != 0 {
		t.Fatalf("user bookings left: %v", members)
	}
	if owned, _ := unit.Memberships().Members(ctx, domainmembership.UserListings, "owner-1"); len(owned) != 0 {
		t.Fatalf("owner registrations left: %v", owned)
	}
	if paths := f.blobs.Paths(); len(paths) != 0 {
		t.Fatalf("blobs left: %v", paths)
	}
}

func TestDeleteListingAbortsOnStorageFailure(t *testing.T) {
	f := newFixture()
	id := createListing(t, f, "a.png")
	f.blobs.failDelete = true
	_, err := f.delete().Handle(context.Background(), listings.DeleteListingCommand{CallerID: "owner-1", ListingID: id})
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if _, err := f.read(t).Listings().ByID(context.Background(), domainlistings.ListingID(id)); err != nil {
		t.Fatalf("listing must survive a failed delete: %v", err)
	}
}

func TestListListingsHidesInactiveFromOthers(t *testing.T) {
	f := newFixture()
	first := createListing(t, f)
	createListing(t, f)
	h := &listings.SetListingActiveHandler{UoWFactory: f.factory}
	if _, err := h.Handle(context.Background(), listings.SetListingActiveCommand{CallerID: "owner-1", ListingID: first, Active: false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	list := &listings.ListListingsHandler{UoWFactory: f.factory}
	public, err := list.Handle(context.Background(), listings.ListListingsQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(public.Items) != 1 {
		t.Fatalf("expected 1 public listing, got %d", len(public.Items))
	}
	own, err := list.Handle(context.Background(), listings.ListListingsQuery{CallerID: "owner-1", OwnerID: "owner-1", IncludeInactive: true})
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own.Items) != 2 {
		t.Fatalf("expected owner to see 2 listings, got %d", len(own.Items))
	}
}

var errCommit = errors.New("write conflict")

// commitFails hands out units whose commit always fails.
type commitFails struct {
	memory.Factory
}

func (f commitFails) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.Factory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return failingUnit{unit}, nil
}

type failingUnit struct {
	uow.UnitOfWork
}

func (failingUnit) Commit(context.Context) error { return errCommit }

func TestUpdateListingDiscardsUploadsWhenCommitFails(t *testing.T) {
	f := newFixture()
	id := createListing(t, f, "a.png")
	before := f.blobs.Paths()

	handler := f.update()
	handler.UoWFactory = commitFails{f.factory}
	upload := uploads("b.png")[0]
	_, err := handler.Handle(context.Background(), listings.UpdateListingCommand{
		CallerID:       "owner-1",
		ListingID:      id,
		ImagesSupplied: true,
		Images:         []images.ImageInput{{Upload: &upload}},
	})
	if !errors.Is(err, errCommit) {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if after := f.blobs.Paths(); strings.Join(after, ",") != strings.Join(before, ",") {
		t.Fatalf("uncommitted upload left behind: before %v after %v", before, after)
	}
	stored, err := f.read(t).Listings().ByID(context.Background(), domainlistings.ListingID(id))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Images) != 1 {
		t.Fatalf("listing images changed: %v", stored.Images)
	}
}

func TestCreateListingDiscardsUploadsWhenMiddlewareCommitFails(t *testing.T) {
	f := newFixture()
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, listings.CreateListingCommand{}.Key(), f.create())
	chained := middleware.ChainCommands(bus, middleware.Transaction(commitFails{f.factory}, nil))

	_, err := commands.Dispatch[listings.CreateListingCommand, dto.Listing](context.Background(), chained, listings.CreateListingCommand{
		OwnerID: "owner-1",
		Fields:  fields(),
		Images:  uploads("a.png", "b.png"),
	})
	if !errors.Is(err, errCommit) {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if paths := f.blobs.Paths(); len(paths) != 0 {
		t.Fatalf("uploads of an uncommitted listing left behind: %v", paths)
	}
}
