package services

// SplitAmount divides a gross amount into the platform commission and the
// seller's net using a basis-point rate, rounding the commission half-up.
// Integer math guarantees commission + net reconstitute the gross exactly.
func SplitAmount(amountCents int64, rateBasisPoints int64) (commissionCents int64, sellerReceivesCents int64) {
	commissionCents = (amountCents*rateBasisPoints + 5000) / 10000
	sellerReceivesCents = amountCents - commissionCents
	return commissionCents, sellerReceivesCents
}
