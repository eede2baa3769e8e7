package checks

import (
	"context"
	"strconv"
	"strings"

	"github.com/cataloro/probe/cataloro"
)

// TenderWorkflowCheck drives the full bidding flow: two buyers tender below
// asking, the seller accepts one, and the acceptance side effects land
// (tender accepted, competitor auto-rejected, listing sold, buyer notified
// and messaged). A second listing covers the explicit rejection path.
func (s *Service) TenderWorkflowCheck(ctx context.Context) Result {
	r := newResult(CheckTenderWorkflow)

	seller, sellerUser, err := s.loginSeller(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	buyer, buyerUser, err := s.loginBuyer(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	listing, err := seller.CreateListing(ctx, cataloro.CreateListingRequest{
		Title:     "Tender test item " + probeMarker(),
		Price:     100,
		Category:  "diagnostics",
		Condition: "used",
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	defer func() {
		// the accepted path leaves a sold listing behind; remove it
		_ = seller.DeleteListing(context.Background(), listing.ID)
	}()

	tender, err := buyer.SubmitTender(ctx, cataloro.SubmitTenderRequest{
		ListingID:   listing.ID,
		OfferAmount: 85,
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("submit.status", cataloro.TenderActive, tender.Status)
	r.expect("submit.buyer_id", buyerUser.ID, tender.BuyerID)
	r.expect("submit.seller_id", sellerUser.ID, tender.SellerID)
	r.expect("submit.offer", "85", trimFloat(tender.OfferAmount))

	// a competing bid from a second account, left pending so acceptance of
	// the first has something to auto-reject
	rivalClient, rivalUser, err := s.loginAdmin(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	rival, err := rivalClient.SubmitTender(ctx, cataloro.SubmitTenderRequest{
		ListingID:   listing.ID,
		OfferAmount: 70,
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("rival.status", cataloro.TenderActive, rival.Status)

	// the seller sees the pending tender on the listing
	var sellerView []cataloro.Tender
	err = s.waitFor(ctx, "tender on seller view", func() (bool, error) {
		sellerView, err = seller.ListingTenders(ctx, listing.ID)
		if err != nil {
			return false, err
		}
		return containsTender(sellerView, tender.ID), nil
	})
	r.expectTrue("seller_view.contains_tender", err == nil, err)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	accepted, err := seller.AcceptTender(ctx, tender.ID)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("accept.status", cataloro.TenderAccepted, accepted.Status)

	// accepting one tender auto-rejects the competing one
	err = s.waitFor(ctx, "rival tender auto-rejected", func() (bool, error) {
		tenders, err := seller.ListingTenders(ctx, listing.ID)
		if err != nil {
			return false, err
		}
		for _, t := range tenders {
			if t.ID == rival.ID {
				return t.Status == cataloro.TenderRejected, nil
			}
		}
		return false, nil
	})
	r.expectTrue("accept.rival_auto_rejected", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	// the losing bidder sees the same verdict in their own tender list
	rivalView, err := rivalClient.BuyerTenders(ctx, rivalUser.ID)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	rivalStatus := ""
	for _, t := range rivalView {
		if t.ID == rival.ID {
			rivalStatus = t.Status
			break
		}
	}
	r.expect("rival_view.status", cataloro.TenderRejected, rivalStatus)

	// acceptance marks the listing sold
	err = s.waitFor(ctx, "listing sold", func() (bool, error) {
		current, err := seller.GetListing(ctx, listing.ID)
		if err != nil {
			return false, err
		}
		return current.Status == cataloro.ListingSold, nil
	})
	r.expectTrue("accept.listing_sold", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	// the buyer hears about it: a notification and a message from the seller
	err = s.waitFor(ctx, "buyer notification", func() (bool, error) {
		notifications, err := buyer.Notifications(ctx, buyerUser.ID)
		if err != nil {
			return false, err
		}
		for _, n := range notifications {
			if n.Type == "tender_accepted" && strings.Contains(n.Message, listing.Title) {
				return true, nil
			}
		}
		return false, nil
	})
	r.expectTrue("accept.buyer_notified", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	err = s.waitFor(ctx, "buyer message", func() (bool, error) {
		messages, err := buyer.Messages(ctx, buyerUser.ID)
		if err != nil {
			return false, err
		}
		for _, m := range messages {
			if m.SenderID == sellerUser.ID && strings.Contains(m.Content, listing.Title) {
				return true, nil
			}
		}
		return false, nil
	})
	r.expectTrue("accept.buyer_messaged", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	s.rejectionPath(ctx, r, seller, buyer)

	return r.done()
}

// rejectionPath covers the seller turning a tender down.
func (s *Service) rejectionPath(ctx context.Context, r *result, seller, buyer *cataloro.Client) {
	listing, err := seller.CreateListing(ctx, cataloro.CreateListingRequest{
		Title:     "Reject test item " + probeMarker(),
		Price:     60,
		Category:  "diagnostics",
		Condition: "used",
	})
	if err != nil {
		r.fail(err)
		return
	}
	defer func() {
		_ = seller.DeleteListing(context.Background(), listing.ID)
	}()

	tender, err := buyer.SubmitTender(ctx, cataloro.SubmitTenderRequest{
		ListingID:   listing.ID,
		OfferAmount: 10,
	})
	if err != nil {
		r.fail(err)
		return
	}

	rejected, err := seller.RejectTender(ctx, tender.ID)
	if err != nil {
		r.fail(err)
		return
	}
	r.expect("reject.status", cataloro.TenderRejected, rejected.Status)

	// rejection must not touch the listing
	current, err := seller.GetListing(ctx, listing.ID)
	if err != nil {
		r.fail(err)
		return
	}
	r.expect("reject.listing_still_active", cataloro.ListingActive, current.Status)
}

func containsTender(tenders []cataloro.Tender, id string) bool {
	for _, t := range tenders {
		if t.ID == id {
			return true
		}
	}
	return false
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
