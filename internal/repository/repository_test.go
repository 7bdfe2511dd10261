package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/testing/testdb"
)

func strPtr(s string) *string { return &s }

// ============================================================================
// User Repository Tests
// ============================================================================

func TestUserRepository_CreateAndLookup(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewUserRepository(tdb.DB)
	ctx := tdb.Context()

	u := &model.User{Username: "olena", Email: "olena@example.com", Hash: "h", Role: model.UserRoleManager, IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := repo.GetByUsername(ctx, "olena")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.UserRoleManager, got.Role)
	assert.True(t, got.IsActive)
	assert.Equal(t, "h", got.Hash)
}

func TestUserRepository_GetMissing_ReturnsNil(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewUserRepository(tdb.DB)

	got, err := repo.GetByID(tdb.Context(), 404)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewUserRepository(tdb.DB)
	ctx := tdb.Context()

	require.NoError(t, repo.Create(ctx, &model.User{Username: "x", Email: "a@b.c", Hash: "h", Role: model.UserRoleMaster}))
	err := repo.Create(ctx, &model.User{Username: "x", Email: "d@e.f", Hash: "h", Role: model.UserRoleMaster})

	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestUserRepository_PartialUpdate(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewUserRepository(tdb.DB)
	ctx := tdb.Context()
	u := tdb.CreateUser(model.UserRoleMaster)

	inactive := false
	role := model.UserRoleManager
	require.NoError(t, repo.Update(ctx, u.ID, model.UserUpdate{IsActive: &inactive, Role: &role}))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, model.UserRoleManager, got.Role)
	assert.Equal(t, u.Username, got.Username)
}

func TestUserRepository_DeleteMissing_ReturnsErrNotFound(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)

	err := NewUserRepository(tdb.DB).Delete(tdb.Context(), 404)

	assert.ErrorIs(t, err, database.ErrNotFound)
}

// ============================================================================
// Customer and Car Repository Tests
// ============================================================================

func TestCustomerRepository_ListPagination(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewCustomerRepository(tdb.DB)
	for i := 0; i < 5; i++ {
		tdb.CreateCustomer()
	}

	page, err := repo.List(tdb.Context(), ListOptions{Offset: 1, Limit: 2})

	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Less(t, page[0].ID, page[1].ID)
}

func TestCustomerRepository_UpdateKeepsOptionalAddress(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewCustomerRepository(tdb.DB)
	ctx := tdb.Context()

	c, err := repo.Create(ctx, model.CustomerInput{FirstName: "A", LastName: "B", Phone: "1", Email: "a@b.c", Address: strPtr("Kyiv")})
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, c.ID, model.CustomerInput{FirstName: "A", LastName: "C", Phone: "1", Email: "a@b.c"}))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", got.LastName)
	assert.Nil(t, got.Address)
}

func TestCarRepository_VINIsUnique(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewCarRepository(tdb.DB)
	ctx := tdb.Context()
	owner := tdb.CreateCustomer()

	_, err := repo.Create(ctx, model.CarInput{CustomerID: owner.ID, Brand: "VW", Model: "Golf", Year: 2010, VIN: strPtr("VIN-1")})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.CarInput{CustomerID: owner.ID, Brand: "VW", Model: "Golf", Year: 2011, VIN: strPtr("VIN-1")})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	// Cars without a VIN never collide
	_, err = repo.Create(ctx, model.CarInput{CustomerID: owner.ID, Brand: "VW", Model: "Up", Year: 2012})
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.CarInput{CustomerID: owner.ID, Brand: "VW", Model: "Up", Year: 2013})
	require.NoError(t, err)

	got, err := repo.GetByVIN(ctx, "VIN-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2010, got.Year)
}

func TestCarRepository_UnknownOwner_ReturnsErrReferenced(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)

	_, err := NewCarRepository(tdb.DB).Create(tdb.Context(), model.CarInput{CustomerID: 999, Brand: "VW", Model: "Golf", Year: 2010})

	assert.ErrorIs(t, err, database.ErrReferenced)
}

// ============================================================================
// Invoice Repository Tests
// ============================================================================

func TestInvoiceRepository_ListFiltersByWorker(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewInvoiceRepository(tdb.DB)
	ctx := tdb.Context()
	car := tdb.CreateCar(tdb.CreateCustomer().ID)
	svc := tdb.CreateService(50)
	m1 := tdb.CreateUser(model.UserRoleMaster)
	m2 := tdb.CreateUser(model.UserRoleMaster)
	tdb.CreateInvoice(car, m1.ID, svc.ID, 50)
	tdb.CreateInvoice(car, m1.ID, svc.ID, 60)
	tdb.CreateInvoice(car, m2.ID, svc.ID, 70)

	all, err := repo.List(ctx, InvoiceFilter{}, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, err := repo.List(ctx, InvoiceFilter{WorkerID: &m1.ID}, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, inv := range own {
		assert.Equal(t, m1.ID, inv.WorkerID)
	}
}

func TestInvoiceRepository_CreateAndPatchStatus(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewInvoiceRepository(tdb.DB)
	ctx := tdb.Context()
	car := tdb.CreateCar(tdb.CreateCustomer().ID)
	svc := tdb.CreateService(80)
	worker := tdb.CreateUser(model.UserRoleMaster)
	due := time.Now().Add(72 * time.Hour)

	inv, err := repo.Create(ctx, model.InvoiceInput{
		CustomerID: car.CustomerID, CarID: car.ID, WorkerID: worker.ID, ServiceID: svc.ID,
		TotalAmount: 80, PaymentStatus: model.PaymentUnpaid, WorkStatus: model.WorkNew, DueDate: &due,
	}, &worker.ID)
	require.NoError(t, err)

	paid := model.PaymentPaid
	require.NoError(t, repo.Update(ctx, inv.ID, model.InvoicePatch{PaymentStatus: &paid}))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.WorkNew, got.WorkStatus)
	assert.InDelta(t, 80.0, got.TotalAmount, 0.001)
	require.NotNil(t, got.DueDate)
	assert.WithinDuration(t, due, *got.DueDate, time.Second)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, worker.ID, *got.CreatedBy)
}

func TestInvoiceRepository_DeleteCascadesItems(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	ctx := tdb.Context()
	car := tdb.CreateCar(tdb.CreateCustomer().ID)
	svc := tdb.CreateService(10)
	inv := tdb.CreateInvoice(car, tdb.CreateUser(model.UserRoleMaster).ID, svc.ID, 30)
	items := NewInvoiceItemRepository(tdb.DB)
	total := 30.0
	_, err := items.Create(ctx, model.InvoiceItemInput{InvoiceID: inv.ID, ServiceID: svc.ID, Quantity: 3, UnitPrice: 10, Total: &total})
	require.NoError(t, err)

	require.NoError(t, NewInvoiceRepository(tdb.DB).Delete(ctx, inv.ID))

	assert.Equal(t, 0, tdb.Count("invoice_items"))
}

// ============================================================================
// Service Record Repository Tests
// ============================================================================

func TestServiceRecordRepository_LinkInvoiceOnlyOnce(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewServiceRecordRepository(tdb.DB)
	ctx := tdb.Context()
	car := tdb.CreateCar(tdb.CreateCustomer().ID)
	svc := tdb.CreateService(10)
	master := tdb.CreateUser(model.UserRoleMaster)
	rec := tdb.CreateServiceRecord(car.ID, svc.ID, master.ID)
	inv1 := tdb.CreateInvoice(car, master.ID, svc.ID, 10)
	inv2 := tdb.CreateInvoice(car, master.ID, svc.ID, 10)

	require.NoError(t, repo.LinkInvoice(ctx, rec.ID, inv1.ID))
	assert.ErrorIs(t, repo.LinkInvoice(ctx, rec.ID, inv2.ID), database.ErrNotFound)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InvoiceID)
	assert.Equal(t, inv1.ID, *got.InvoiceID)
}

func TestServiceRecordRepository_ListNewestFirst(t *testing.T) {
	t.Parallel()
	tdb := testdb.New(t)
	repo := NewServiceRecordRepository(tdb.DB)
	ctx := tdb.Context()
	car := tdb.CreateCar(tdb.CreateCustomer().ID)
	svc := tdb.CreateService(10)
	master := tdb.CreateUser(model.UserRoleMaster)
	mileage := 120000

	older, err := repo.Create(ctx, model.ServiceRecordInput{CarID: car.ID, ServiceID: svc.ID, PerformedBy: master.ID, Date: time.Now().Add(-48 * time.Hour)})
	require.NoError(t, err)
	newer, err := repo.Create(ctx, model.ServiceRecordInput{CarID: car.ID, ServiceID: svc.ID, PerformedBy: master.ID, Date: time.Now(), Mileage: &mileage})
	require.NoError(t, err)

	list, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	require.NotNil(t, list[0].Mileage)
	assert.Equal(t, mileage, *list[0].Mileage)
	assert.Nil(t, list[1].Notes)
}
