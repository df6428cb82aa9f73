/*
Package lc50 fits a dose-response toxicology model for destructive-sampling
survival data observed across toxin concentrations and treatment groups.

The model jointly estimates a concentration-response rate for each group, a
probit-scale control (background) survival probability for each group, and a
shared set of regression coefficients linking treatment covariates to the log
LC50.  Estimation is by maximum likelihood using the gonum optimizers; the
parameter covariance matrix is obtained from a pseudo-inverse of the numeric
Hessian at the optimum.
*/
package lc50
