package checks

import (
	"context"
	"fmt"

	"github.com/cataloro/probe/cataloro"
	"github.com/cataloro/probe/utils"
	"github.com/google/uuid"
)

// probeMarker tags records created by a run so they can be told apart from
// real marketplace data (and cleaned up by the check itself).
func probeMarker() string {
	return "probe-" + uuid.NewString()[:8]
}

// ListingLifecycleCheck drives a listing through its whole life: create,
// surface in browse, update, read back, delete, disappear from browse.
func (s *Service) ListingLifecycleCheck(ctx context.Context) Result {
	r := newResult(CheckListingLifecycle)

	seller, sellerUser, err := s.loginSeller(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	marker := probeMarker()
	listing, err := seller.CreateListing(ctx, cataloro.CreateListingRequest{
		Title:       "Smoke test item " + marker,
		Description: "created by the probe, safe to remove",
		Price:       49.99,
		Category:    "diagnostics",
		Condition:   "new",
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("create.seller_id", sellerUser.ID, listing.SellerID)
	r.expect("create.status", cataloro.ListingActive, listing.Status)
	r.expect("create.price", "49.99", fmt.Sprintf("%.2f", listing.Price))

	// the seller's own inventory shows it immediately
	mine, err := seller.MyListings(ctx, sellerUser.ID)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	owned := false
	for _, l := range mine {
		if l.ID == listing.ID {
			owned = true
			break
		}
	}
	r.expectTrue("create.in_my_listings", owned, owned)

	// new listings surface in browse once the backend settles
	anon := s.newClient()
	err = s.waitFor(ctx, "listing in browse", func() (bool, error) {
		return s.browseContains(ctx, anon, listing.ID)
	})
	r.expectTrue("browse.contains_new_listing", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	updated, err := seller.UpdateListing(ctx, listing.ID, cataloro.UpdateListingRequest{
		Price:       utils.Float64ptr(39.99),
		Description: utils.Strptr("price dropped by the probe"),
	})
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("update.price", "39.99", fmt.Sprintf("%.2f", updated.Price))

	fetched, err := seller.GetListing(ctx, listing.ID)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("readback.price", "39.99", fmt.Sprintf("%.2f", fetched.Price))
	r.expect("readback.description", "price dropped by the probe", fetched.Description)

	if err := seller.DeleteListing(ctx, listing.ID); err != nil {
		r.fail(err)
		return r.done()
	}

	// a deleted listing must 404 and drop out of browse
	_, err = seller.GetListing(ctx, listing.ID)
	r.expectTrue("delete.get_returns_404", cataloro.IsNotFound(err), err)

	err = s.waitFor(ctx, "listing gone from browse", func() (bool, error) {
		found, err := s.browseContains(ctx, anon, listing.ID)
		return !found, err
	})
	r.expectTrue("browse.dropped_deleted_listing", err == nil, err)
	if err != nil {
		r.fail(err)
	}

	return r.done()
}

// browseContains walks the browse pages looking for a listing id.
func (s *Service) browseContains(ctx context.Context, client *cataloro.Client, listingID string) (bool, error) {
	const pageSize = 50
	for page := 1; page <= 20; page++ {
		result, err := client.Browse(ctx, page, pageSize)
		if err != nil {
			return false, err
		}
		for _, listing := range result.Listings {
			if listing.ID == listingID {
				return true, nil
			}
		}
		if len(result.Listings) < pageSize {
			return false, nil
		}
	}
	return false, nil
}

// BrowseCheck verifies the public feed honors its paging contract and that
// every listing it serves has a sane shape.
func (s *Service) BrowseCheck(ctx context.Context) Result {
	r := newResult(CheckBrowse)

	client := s.newClient()
	const pageSize = 5

	first, err := client.Browse(ctx, 1, pageSize)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("page1.page", 1, first.Page)
	r.expect("page1.page_size", pageSize, first.PageSize)
	r.expectTrue("page1.len_within_page_size", len(first.Listings) <= pageSize, len(first.Listings))
	r.expectTrue("page1.total_covers_page", first.Total >= int64(len(first.Listings)), first.Total)

	// walk a few pages: ids stay unique, total stays put
	seen := map[string]bool{}
	for _, listing := range first.Listings {
		seen[listing.ID] = true
	}
	for page := 2; page <= 3; page++ {
		result, err := client.Browse(ctx, page, pageSize)
		if err != nil {
			r.fail(err)
			return r.done()
		}
		r.expect(fmt.Sprintf("page%d.total_stable", page), first.Total, result.Total)
		for _, listing := range result.Listings {
			if !r.expectTrue(fmt.Sprintf("page%d.unique_id", page), !seen[listing.ID], listing.ID) {
				break
			}
			seen[listing.ID] = true
		}
		if len(result.Listings) < pageSize {
			break
		}
	}

	return r.done()
}
