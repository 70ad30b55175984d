package sep2

import (
	"fmt"

	"github.com/gridpulse/csipd/core/model"
)

// PricingReadingType addresses one of the four price streams encoded on a
// single TariffGeneratedRate row. Each stream is published as its own
// TimeTariffInterval list and therefore gets its own notifications.
type PricingReadingType int

const (
	ImportActivePowerKWH PricingReadingType = iota + 1
	ExportActivePowerKWH
	ImportReactivePowerKVARH
	ExportReactivePowerKVARH
)

// AllPricingReadingTypes lists every supported price stream in wire order.
var AllPricingReadingTypes = []PricingReadingType{
	ImportActivePowerKWH,
	ExportActivePowerKWH,
	ImportReactivePowerKVARH,
	ExportReactivePowerKVARH,
}

func (p PricingReadingType) String() string {
	switch p {
	case ImportActivePowerKWH:
		return "import_active"
	case ExportActivePowerKWH:
		return "export_active"
	case ImportReactivePowerKVARH:
		return "import_reactive"
	case ExportReactivePowerKVARH:
		return "export_reactive"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// PriceFor extracts the price stream selected by p from a rate row.
func PriceFor(rate *model.TariffGeneratedRate, p PricingReadingType) (int64, error) {
	switch p {
	case ImportActivePowerKWH:
		return rate.ImportActivePrice, nil
	case ExportActivePowerKWH:
		return rate.ExportActivePrice, nil
	case ImportReactivePowerKVARH:
		return rate.ImportReactivePrice, nil
	case ExportReactivePowerKVARH:
		return rate.ExportReactivePrice, nil
	default:
		return 0, fmt.Errorf("sep2: unknown pricing reading type %d", int(p))
	}
}
