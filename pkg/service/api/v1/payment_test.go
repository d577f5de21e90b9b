package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/txn"
	"github.com/sahelpay/payd/pkg/service"
	"github.com/sahelpay/payd/pkg/service/lifecycle"
	"github.com/sahelpay/payd/pkg/testutil"
)

type stubGateway struct {
	status  txn.Status
	initErr error
}

func (g *stubGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.InitiateResult{
		TransactionID: "TX-" + req.InvoiceID,
		PaymentCode:   "#144#391*4500#",
		ExpiresAt:     time.Now().Add(10 * time.Minute),
	}, nil
}

func (g *stubGateway) Check(_ context.Context, _, _ string) (*gateway.CheckResult, error) {
	return &gateway.CheckResult{Status: g.status}, nil
}

func pendingGateway() *stubGateway {
	return &stubGateway{status: txn.StatusPending}
}

func withPaymentAPI(t *testing.T, newGW func() *stubGateway, f func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus)) func() {
	return testutil.WithContext(func(ctx *service.Context, logChan <-chan *log15.Record) {
		store := txn.NewMemoryStore()
		bus := lifecycle.NewBus()
		lc, err := lifecycle.NewService(ctx, lifecycle.Deps{
			Gateway: newGW(),
			Store:   store,
			Source:  bus,
			Log:     ctx.Log(),
		})
		So(err, ShouldBeNil)
		Reset(lc.Shutdown)

		router := mux.NewRouter()
		NewService(ctx, lc, router)

		f(router, store, lc, bus)
	})
}

func initBody(invoiceID, method, phone string) *bytes.Buffer {
	body, _ := json.Marshal(map[string]string{
		"InvoiceID":   invoiceID,
		"Method":      method,
		"PhoneNumber": phone,
	})
	return bytes.NewBuffer(body)
}

func decodeResponse(res *httptest.ResponseRecorder) ServiceResponse {
	resp := ServiceResponse{}
	So(json.NewDecoder(res.Body).Decode(&resp), ShouldBeNil)
	return resp
}

// awaitPaymentInfo polls the payment state endpoint until the response info
// contains want
func awaitPaymentInfo(router *mux.Router, url, want string) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest("GET", url, nil))
		resp := ServiceResponse{}
		if json.NewDecoder(res.Body).Decode(&resp) == nil && strings.Contains(resp.Info, want) {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInitPayment(t *testing.T) {
	Convey("Given the payment API", t, withPaymentAPI(t, pendingGateway, func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus) {
		Convey("When submitting a valid payment", func() {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "wave", "77 123 45 67")))

			Convey("It should be accepted into waiting", func() {
				So(res.Code, ShouldEqual, http.StatusAccepted)
				resp := decodeResponse(res)
				So(resp.Status, ShouldEqual, StatusSuccess)
				So(resp.Info, ShouldContainSubstring, "waiting")
				So(res.Header().Get("X-Request-ID"), ShouldNotBeBlank)
			})

			Convey("A concurrent second submit should conflict", func() {
				res2 := httptest.NewRecorder()
				router.ServeHTTP(res2, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "wave", "77 123 45 67")))
				So(res2.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When submitting a malformed body", func() {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", bytes.NewBufferString("{nope")))

			Convey("It should be a bad request", func() {
				So(res.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When omitting the phone number", func() {
			res := httptest.NewRecorder()
			body, _ := json.Marshal(map[string]string{"InvoiceID": "INV-1", "Method": "wave"})
			router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", bytes.NewBuffer(body)))

			Convey("It should be a bad request naming the field", func() {
				So(res.Code, ShouldEqual, http.StatusBadRequest)
				resp := decodeResponse(res)
				So(resp.Info, ShouldContainSubstring, "PhoneNumber")
			})
		})

		Convey("When the phone number fails channel validation", func() {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "orange_money", "761234567")))

			Convey("It should be a bad request without any lifecycle state change", func() {
				So(res.Code, ShouldEqual, http.StatusBadRequest)

				resGet := httptest.NewRecorder()
				router.ServeHTTP(resGet, httptest.NewRequest("GET", "/v1/payment/INV-1", nil))
				resp := decodeResponse(resGet)
				So(resp.Info, ShouldContainSubstring, "input")
			})
		})
	}))
}

func TestGetPaymentResumes(t *testing.T) {
	Convey("Given a persisted pending transaction", t, withPaymentAPI(t, pendingGateway, func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus) {
		rec := &txn.PendingTransaction{
			TransactionID: "TX-OLD",
			InvoiceID:     "INV-9",
			Method:        txn.MethodWave,
			PhoneNumber:   "221771234567",
			CreatedAt:     time.Now().Add(-time.Minute),
			ExpiresAt:     time.Now().Add(3 * time.Minute),
			CheckCount:    4,
		}
		So(store.Save(context.Background(), rec), ShouldBeNil)

		Convey("When the UI asks for the payment state after a reload", func() {
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest("GET", "/v1/payment/INV-9", nil))

			Convey("The lifecycle should resume into waiting with the original expiry", func() {
				So(res.Code, ShouldEqual, http.StatusOK)
				resp := decodeResponse(res)
				So(resp.Info, ShouldContainSubstring, "waiting")

				snap, err := json.Marshal(resp.Response)
				So(err, ShouldBeNil)
				got := lifecycle.Snapshot{}
				So(json.Unmarshal(snap, &got), ShouldBeNil)
				So(got.TransactionID, ShouldEqual, "TX-OLD")
				So(got.CheckCount, ShouldBeGreaterThanOrEqualTo, 4)
				So(got.RemainingSec, ShouldBeBetweenOrEqual, 150, 180)
			})
		})
	}))
}

func TestCancelAndRetryPayment(t *testing.T) {
	Convey("Given a waiting payment", t, withPaymentAPI(t, pendingGateway, func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus) {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "wave", "771234567")))
		So(res.Code, ShouldEqual, http.StatusAccepted)

		Convey("When cancelling the payment", func() {
			resDel := httptest.NewRecorder()
			router.ServeHTTP(resDel, httptest.NewRequest("DELETE", "/v1/payment/INV-1", nil))

			Convey("The lifecycle should reset and the record should be gone", func() {
				So(resDel.Code, ShouldEqual, http.StatusOK)
				resp := decodeResponse(resDel)
				So(resp.Info, ShouldContainSubstring, "input")

				_, err := store.Load(context.Background(), "INV-1")
				So(err, ShouldEqual, txn.ErrNoPending)
			})
		})

		Convey("When retrying without a failed attempt", func() {
			resRetry := httptest.NewRecorder()
			router.ServeHTTP(resRetry, httptest.NewRequest("POST", "/v1/payment/INV-1/retry", nil))

			Convey("It should conflict", func() {
				So(resRetry.Code, ShouldEqual, http.StatusConflict)
			})
		})
	}))
}

func TestPaymentControllerEviction(t *testing.T) {
	Convey("Given a waiting payment", t, withPaymentAPI(t, pendingGateway, func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus) {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "wave", "771234567")))
		So(res.Code, ShouldEqual, http.StatusAccepted)
		So(lc.Active(), ShouldEqual, 1)

		Convey("When the payment is cancelled", func() {
			resDel := httptest.NewRecorder()
			router.ServeHTTP(resDel, httptest.NewRequest("DELETE", "/v1/payment/INV-1", nil))
			So(resDel.Code, ShouldEqual, http.StatusOK)

			Convey("Its controller should leave the registry", func() {
				So(lc.Active(), ShouldEqual, 0)
			})
		})

		Convey("When the gateway confirms the payment", func() {
			bus.Publish("INV-1", txn.StatusPaid)

			Convey("Serving the confirmation should release the controller", func() {
				So(awaitPaymentInfo(router, "/v1/payment/INV-1", "success"), ShouldBeTrue)
				So(lc.Active(), ShouldEqual, 0)

				Convey("A later request should see a fresh lifecycle", func() {
					resGet := httptest.NewRecorder()
					router.ServeHTTP(resGet, httptest.NewRequest("GET", "/v1/payment/INV-1", nil))
					So(decodeResponse(resGet).Info, ShouldContainSubstring, "input")
				})
			})
		})
	}))
}

func TestRetryReleasesController(t *testing.T) {
	declineGW := func() *stubGateway {
		return &stubGateway{initErr: &gateway.Error{Code: gateway.CodeInsufficientFunds, Message: "solde insuffisant"}}
	}

	Convey("Given a payment attempt declined at initiation", t, withPaymentAPI(t, declineGW, func(router *mux.Router, store *txn.MemoryStore, lc *lifecycle.Service, bus *lifecycle.Bus) {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest("POST", "/v1/payment", initBody("INV-1", "wave", "771234567")))
		So(res.Code, ShouldEqual, http.StatusAccepted)
		So(decodeResponse(res).Info, ShouldContainSubstring, "error")
		So(lc.Active(), ShouldEqual, 1)

		Convey("When the UI retries", func() {
			resRetry := httptest.NewRecorder()
			router.ServeHTTP(resRetry, httptest.NewRequest("POST", "/v1/payment/INV-1/retry", nil))

			Convey("The lifecycle should reset and the controller should leave the registry", func() {
				So(resRetry.Code, ShouldEqual, http.StatusOK)
				So(decodeResponse(resRetry).Info, ShouldContainSubstring, "input")
				So(lc.Active(), ShouldEqual, 0)
			})
		})
	}))
}
