package testutil

// ThroughCell declares the negative electrode, separator and positive
// electrode domains with 5, 3 and 5 cells, discretized with finite volumes.
const ThroughCell = `
domain "negative electrode" {
  min    = 0
  max    = 1
  points = 5
}

domain "separator" {
  min    = 1
  max    = 1.6
  points = 3
}

domain "positive electrode" {
  min    = 1.6
  max    = 2.6
  points = 5
}

spatial_method "macroscale" {
  method = "finite volume"
}
`

// Diffusion is a model on ThroughCell: a concentration diffusing through
// the three domains together with a charge counter driven by the input I.
const Diffusion = `
model "diffusion" {
  variable "c_n" {
    domain = ["negative electrode"]
  }
  variable "c_s" {
    domain = ["separator"]
  }
  variable "c_p" {
    domain = ["positive electrode"]
  }
  concatenation "c" {
    children = ["c_n", "c_s", "c_p"]
  }
  variable "Q" {}
  input "I" {}

  rhs "c" {
    equation = div(grad(c))
    initial  = 1
  }
  rhs "Q" {
    equation = I
    initial  = 0
  }

  boundary_conditions "c" {
    left  = neumann(0)
    right = dirichlet(1)
  }

  output "c average" {
    value = x_average(c)
  }

  event "Q limit" {
    value = 10 - Q
  }
}
`
